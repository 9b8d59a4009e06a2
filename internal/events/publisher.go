package events

import (
	"context"
	"time"
)

// AttemptEvent is published after every ledger write so downstream consumers
// can react to ingestion outcomes without polling the ledger
type AttemptEvent struct {
	// EventID is a ULID assigned at publish time (time-sortable uniqueness)
	EventID string `json:"event_id"`
	// ReceiverID is the webhook receiver the delivery was addressed to
	ReceiverID uint64 `json:"receiver_id"`
	// IdempotencyKey is the dedup key derived for the delivery
	IdempotencyKey string `json:"idempotency_key"`
	// ResultCode is the stable numeric outcome recorded in the ledger
	ResultCode int `json:"result_code"`
	// TableName is the receiver's target table
	TableName string `json:"table_name"`
	// ReceivedAt is the server clock at receipt
	ReceivedAt time.Time `json:"received_at"`
}

// Publisher defines the interface for publishing ingestion outcome events
type Publisher interface {
	// PublishAttempt publishes one attempt event to the message broker
	PublishAttempt(ctx context.Context, event AttemptEvent) error
	// Close drains and closes the connection
	Close()
}
