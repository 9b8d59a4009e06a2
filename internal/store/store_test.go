package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hookfeed/hook-ingestor/internal/domain"
	"github.com/hookfeed/hook-ingestor/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// seedReceiver registers a webhook receiver directly in the control tables
func seedReceiver(t *testing.T, db *gorm.DB, id uint64, authType domain.AuthType, secret string) *schema.WebhookReceiver {
	receiver := &schema.WebhookReceiver{
		ID:          id,
		Label:       fmt.Sprintf("receiver %d", id),
		TargetTable: "customers",
		AuthType:    authType,
		HMACSecret:  secret,
	}
	require.NoError(t, db.Create(receiver).Error)
	return receiver
}

// seedCatalog registers a target table and its known fields
func seedCatalog(t *testing.T, db *gorm.DB, tableName string, idColumn *string, fieldNames ...string) {
	meta := &schema.TableMetadata{
		Name:     tableName,
		IDColumn: idColumn,
	}
	require.NoError(t, db.Create(meta).Error)

	for _, name := range fieldNames {
		field := &schema.TableField{
			Table:     tableName,
			FieldName: name,
			Format:    "text",
		}
		require.NoError(t, db.Create(field).Error)
	}
}

// buildTestAttempt creates a ledger entry input
func buildTestAttempt(receiverID uint64, key string, code domain.ResultCode) *schema.WebhookReceiverLog {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &schema.WebhookReceiverLog{
		ReceiverID:     receiverID,
		IdempotencyKey: key,
		DeliveredAt:    now,
		ReceivedAt:     now,
		Envelope:       datatypes.JSON(`{"headers":{"webhook-id":"msg_001"},"body":"{}"}`),
		ResultCode:     code,
	}
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Tests
// =============================================================================

func testGetReceiverByID(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()

	t.Run("get existing receiver", func(t *testing.T) {
		seedReceiver(t, db, 123, domain.AuthTypeHMAC, "test_secret_key")

		receiver, err := s.GetReceiverByID(ctx, 123)
		require.NoError(t, err)
		require.NotNil(t, receiver)
		assert.Equal(t, uint64(123), receiver.ID)
		assert.Equal(t, "customers", receiver.TargetTable)
		assert.Equal(t, domain.AuthTypeHMAC, receiver.AuthType)
		assert.Equal(t, "test_secret_key", receiver.HMACSecret)
		assert.False(t, receiver.CreatedAt.IsZero())
	})

	t.Run("get non-existent receiver returns nil", func(t *testing.T) {
		receiver, err := s.GetReceiverByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, receiver)
	})
}

func testTableCatalog(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()
	seedCatalog(t, db, "customers", strPtr("email"), "customer_name", "email", "status")

	t.Run("get existing table metadata", func(t *testing.T) {
		meta, err := s.GetTableMetadata(ctx, "customers")
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Equal(t, "customers", meta.Name)
		require.NotNil(t, meta.IDColumn)
		assert.Equal(t, "email", *meta.IDColumn)
	})

	t.Run("get non-existent table metadata returns nil", func(t *testing.T) {
		meta, err := s.GetTableMetadata(ctx, "orders")
		require.NoError(t, err)
		assert.Nil(t, meta)
	})

	t.Run("get fields of catalogued table", func(t *testing.T) {
		fields, err := s.GetTableFields(ctx, "customers")
		require.NoError(t, err)
		require.Len(t, fields, 3)

		names := make([]string, 0, len(fields))
		for _, field := range fields {
			names = append(names, field.FieldName)
		}
		assert.ElementsMatch(t, []string{"customer_name", "email", "status"}, names)
	})

	t.Run("get fields of unknown table returns empty list", func(t *testing.T) {
		fields, err := s.GetTableFields(ctx, "orders")
		require.NoError(t, err)
		assert.Empty(t, fields)
	})
}

func testAttemptLedger(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()
	seedReceiver(t, db, 1, domain.AuthTypeNone, "")

	t.Run("create and read back a ledger entry", func(t *testing.T) {
		detail := "Invalid JSON in body"
		attempt := buildTestAttempt(1, "msg_abc", domain.ResultInvalidJSON)
		attempt.ErrorDetail = &detail
		require.NoError(t, s.CreateAttempt(ctx, attempt))
		assert.NotZero(t, attempt.ID)

		got, err := s.GetAttempt(ctx, 1, "msg_abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, uint64(1), got.ReceiverID)
		assert.Equal(t, "msg_abc", got.IdempotencyKey)
		assert.Equal(t, domain.ResultInvalidJSON, got.ResultCode)
		require.NotNil(t, got.ErrorDetail)
		assert.Equal(t, detail, *got.ErrorDetail)
		assert.JSONEq(t, `{"headers":{"webhook-id":"msg_001"},"body":"{}"}`, string(got.Envelope))
		assert.WithinDuration(t, attempt.DeliveredAt, got.DeliveredAt, time.Millisecond)
	})

	t.Run("get non-existent entry returns nil", func(t *testing.T) {
		got, err := s.GetAttempt(ctx, 1, "msg_never_seen")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("same key under another receiver is a separate entry", func(t *testing.T) {
		seedReceiver(t, db, 2, domain.AuthTypeNone, "")
		require.NoError(t, s.CreateAttempt(ctx, buildTestAttempt(2, "msg_abc", domain.ResultSuccess)))

		got, err := s.GetAttempt(ctx, 2, "msg_abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.ResultSuccess, got.ResultCode)
	})
}

func testAttemptLedgerUniqueness(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()
	seedReceiver(t, db, 1, domain.AuthTypeNone, "")

	require.NoError(t, s.CreateAttempt(ctx, buildTestAttempt(1, "msg_dup", domain.ResultSuccess)))

	// The violation aborts the enclosing transaction, so fence it off
	require.NoError(t, db.SavePoint("before_duplicate").Error)
	err := s.CreateAttempt(ctx, buildTestAttempt(1, "msg_dup", domain.ResultSuccess))
	assert.ErrorIs(t, err, domain.ErrDuplicateAttempt)
	require.NoError(t, db.RollbackTo("before_duplicate").Error)

	// The original entry survives and a different key is still accepted
	got, err := s.GetAttempt(ctx, 1, "msg_dup")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, s.CreateAttempt(ctx, buildTestAttempt(1, "msg_other", domain.ResultSuccess)))
}

func testListAttempts(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()
	seedReceiver(t, db, 1, domain.AuthTypeNone, "")
	seedReceiver(t, db, 2, domain.AuthTypeNone, "")

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateAttempt(ctx, buildTestAttempt(1, fmt.Sprintf("msg_%03d", i), domain.ResultSuccess)))
	}
	require.NoError(t, s.CreateAttempt(ctx, buildTestAttempt(2, "msg_other_receiver", domain.ResultSuccess)))

	t.Run("lists only the receiver's entries, newest first", func(t *testing.T) {
		attempts, err := s.ListAttempts(ctx, 1, 10, 0)
		require.NoError(t, err)
		require.Len(t, attempts, 3)
		assert.Equal(t, "msg_002", attempts[0].IdempotencyKey)
		assert.Equal(t, "msg_000", attempts[2].IdempotencyKey)
	})

	t.Run("limit and offset page through the ledger", func(t *testing.T) {
		attempts, err := s.ListAttempts(ctx, 1, 2, 0)
		require.NoError(t, err)
		require.Len(t, attempts, 2)

		attempts, err = s.ListAttempts(ctx, 1, 2, 2)
		require.NoError(t, err)
		require.Len(t, attempts, 1)
		assert.Equal(t, "msg_000", attempts[0].IdempotencyKey)
	})
}

func testInsertRow(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()

	err := s.InsertRow(ctx, "customers", map[string]interface{}{
		"customer_name": "John Doe",
		"email":         "john@example.com",
		"status":        "active",
	})
	require.NoError(t, err)

	var row map[string]interface{}
	require.NoError(t, db.Table("customers").Where("email = ?", "john@example.com").Take(&row).Error)
	assert.Equal(t, "John Doe", row["customer_name"])
	assert.Equal(t, "active", row["status"])
}

func testUpsertRow(t *testing.T, db *gorm.DB, s Store) {
	ctx := context.Background()

	countRows := func() int64 {
		var count int64
		require.NoError(t, db.Table("customers").Count(&count).Error)
		return count
	}

	t.Run("upsert creates the row when the identity is new", func(t *testing.T) {
		err := s.UpsertRow(ctx, "customers", "email", map[string]interface{}{
			"customer_name": "John Doe",
			"email":         "john@example.com",
			"status":        "active",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), countRows())
	})

	t.Run("upsert overwrites the row on identity conflict", func(t *testing.T) {
		err := s.UpsertRow(ctx, "customers", "email", map[string]interface{}{
			"customer_name": "John A. Doe",
			"email":         "john@example.com",
			"status":        "inactive",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), countRows())

		var row map[string]interface{}
		require.NoError(t, db.Table("customers").Where("email = ?", "john@example.com").Take(&row).Error)
		assert.Equal(t, "John A. Doe", row["customer_name"])
		assert.Equal(t, "inactive", row["status"])
	})

	t.Run("identity-only row conflicts quietly and changes nothing", func(t *testing.T) {
		err := s.UpsertRow(ctx, "customers", "email", map[string]interface{}{
			"email": "john@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), countRows())

		var row map[string]interface{}
		require.NoError(t, db.Table("customers").Where("email = ?", "john@example.com").Take(&row).Error)
		assert.Equal(t, "John A. Doe", row["customer_name"])
	})
}

// =============================================================================
// Suite Runner
// =============================================================================

// RunStoreTests runs all store tests against a Store implementation. initDB
// must hand back both the raw connection (for seeding and assertions) and the
// store under test.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) (*gorm.DB, Store), cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, *gorm.DB, Store)
	}{
		{"GetReceiverByID", testGetReceiverByID},
		{"TableCatalog", testTableCatalog},
		{"AttemptLedger", testAttemptLedger},
		{"AttemptLedgerUniqueness", testAttemptLedgerUniqueness},
		{"ListAttempts", testListAttempts},
		{"InsertRow", testInsertRow},
		{"UpsertRow", testUpsertRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, s := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, db, s)
		})
	}
}
