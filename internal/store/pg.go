package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hookfeed/hook-ingestor/internal/domain"
	"github.com/hookfeed/hook-ingestor/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance.
// The gorm connection must be opened with TranslateError enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetReceiverByID retrieves a webhook receiver configuration
func (s *pgStore) GetReceiverByID(ctx context.Context, receiverID uint64) (*schema.WebhookReceiver, error) {
	var receiver schema.WebhookReceiver
	err := s.db.WithContext(ctx).Where("id = ?", receiverID).First(&receiver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook receiver: %w", err)
	}

	return &receiver, nil
}

// GetTableMetadata retrieves the catalog entry for a target table
func (s *pgStore) GetTableMetadata(ctx context.Context, tableName string) (*schema.TableMetadata, error) {
	var meta schema.TableMetadata
	err := s.db.WithContext(ctx).Where("table_name = ?", tableName).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get table metadata: %w", err)
	}

	return &meta, nil
}

// GetTableFields retrieves the known fields of a catalogued table
func (s *pgStore) GetTableFields(ctx context.Context, tableName string) ([]*schema.TableField, error) {
	var fields []*schema.TableField
	err := s.db.WithContext(ctx).
		Where("table_name = ?", tableName).
		Find(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get table fields: %w", err)
	}

	return fields, nil
}

// GetAttempt retrieves the ledger entry for (receiver, idempotency key)
func (s *pgStore) GetAttempt(ctx context.Context, receiverID uint64, idempotencyKey string) (*schema.WebhookReceiverLog, error) {
	var attempt schema.WebhookReceiverLog
	err := s.db.WithContext(ctx).
		Where("receiver_id = ? AND idempotency_key = ?", receiverID, idempotencyKey).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingestion attempt: %w", err)
	}

	return &attempt, nil
}

// CreateAttempt appends a ledger entry
func (s *pgStore) CreateAttempt(ctx context.Context, attempt *schema.WebhookReceiverLog) error {
	err := s.db.WithContext(ctx).Create(attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateAttempt
		}
		return fmt.Errorf("failed to create ingestion attempt: %w", err)
	}

	return nil
}

// ListAttempts retrieves ledger entries for a receiver, newest first
func (s *pgStore) ListAttempts(ctx context.Context, receiverID uint64, limit, offset int) ([]*schema.WebhookReceiverLog, error) {
	var attempts []*schema.WebhookReceiverLog
	err := s.db.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion attempts: %w", err)
	}

	return attempts, nil
}

// InsertRow inserts one row into an arbitrary target table
func (s *pgStore) InsertRow(ctx context.Context, tableName string, values map[string]interface{}) error {
	err := s.db.WithContext(ctx).Table(tableName).Create(values).Error
	if err != nil {
		return fmt.Errorf("failed to insert row into %s: %w", tableName, err)
	}

	return nil
}

// UpsertRow inserts one row into an arbitrary target table with
// ON CONFLICT (idColumn) DO UPDATE over every other written column
func (s *pgStore) UpsertRow(ctx context.Context, tableName string, idColumn string, values map[string]interface{}) error {
	updateColumns := make([]string, 0, len(values))
	for column := range values {
		if column != idColumn {
			updateColumns = append(updateColumns, column)
		}
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: idColumn}},
	}
	if len(updateColumns) == 0 {
		// Row carries nothing but the identity column, there is nothing to overwrite
		onConflict.DoNothing = true
	} else {
		onConflict.DoUpdates = clause.AssignmentColumns(updateColumns)
	}

	err := s.db.WithContext(ctx).Table(tableName).Clauses(onConflict).Create(values).Error
	if err != nil {
		return fmt.Errorf("failed to upsert row into %s: %w", tableName, err)
	}

	return nil
}
