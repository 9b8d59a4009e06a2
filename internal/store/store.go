package store

import (
	"context"

	"github.com/hookfeed/hook-ingestor/internal/store/schema"
)

// Store defines the interface for database operations
type Store interface {
	// GetReceiverByID retrieves a webhook receiver configuration.
	// Returns nil when no receiver exists with the given ID.
	GetReceiverByID(ctx context.Context, receiverID uint64) (*schema.WebhookReceiver, error)
	// GetTableMetadata retrieves the catalog entry for a target table.
	// Returns nil when the table is not catalogued.
	GetTableMetadata(ctx context.Context, tableName string) (*schema.TableMetadata, error)
	// GetTableFields retrieves the known fields of a catalogued table
	GetTableFields(ctx context.Context, tableName string) ([]*schema.TableField, error)
	// GetAttempt retrieves the ledger entry for (receiver, idempotency key).
	// Returns nil when the delivery has not been seen before.
	GetAttempt(ctx context.Context, receiverID uint64, idempotencyKey string) (*schema.WebhookReceiverLog, error)
	// CreateAttempt appends a ledger entry. Returns domain.ErrDuplicateAttempt
	// when the (receiver_id, idempotency_key) uniqueness constraint fires.
	CreateAttempt(ctx context.Context, attempt *schema.WebhookReceiverLog) error
	// ListAttempts retrieves ledger entries for a receiver, newest first
	ListAttempts(ctx context.Context, receiverID uint64, limit, offset int) ([]*schema.WebhookReceiverLog, error)
	// InsertRow inserts one row into an arbitrary target table
	InsertRow(ctx context.Context, tableName string, values map[string]interface{}) error
	// UpsertRow inserts one row into an arbitrary target table, overwriting
	// all written columns when a row with the same identity-column value
	// already exists
	UpsertRow(ctx context.Context, tableName string, idColumn string, values map[string]interface{}) error
}
