package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/hookfeed/hook-ingestor/internal/domain"
)

// WebhookReceiverLog represents the webhook_receiver_logs table - the
// append-only ledger of ingestion attempts, one row per unique delivery.
//
// The unique index on (receiver_id, idempotency_key) is the idempotency
// constraint the whole pipeline exists to enforce: a retried delivery that
// derives the same key finds this row and is discarded, and two concurrent
// identical deliveries race into the index instead of both writing.
type WebhookReceiverLog struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ReceiverID is the webhook receiver this attempt was addressed to
	ReceiverID uint64 `gorm:"column:receiver_id;not null;uniqueIndex:idx_receiver_idempotency"`
	// IdempotencyKey is the dedup key derived for the delivery
	IdempotencyKey string `gorm:"column:idempotency_key;not null;type:varchar(512);uniqueIndex:idx_receiver_idempotency"`
	// DeliveredAt is the delivery timestamp claimed by the sender,
	// defaulting to the receipt time when absent or unparseable
	DeliveredAt time.Time `gorm:"column:delivered_at;not null;type:timestamptz"`
	// ReceivedAt is the server clock at receipt
	ReceivedAt time.Time `gorm:"column:received_at;not null;type:timestamptz"`
	// Envelope is the raw request envelope (headers + body) stored verbatim for audit
	Envelope datatypes.JSON `gorm:"column:envelope;not null;type:jsonb"`
	// ResultCode is the stable numeric outcome of the attempt
	ResultCode domain.ResultCode `gorm:"column:result_code;not null;type:smallint"`
	// ErrorDetail carries the failure message when the attempt did not succeed
	ErrorDetail *string `gorm:"column:error_detail;type:text"`
	// CreatedAt is the timestamp when this ledger row was written
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WebhookReceiverLog model
func (WebhookReceiverLog) TableName() string {
	return "webhook_receiver_logs"
}
