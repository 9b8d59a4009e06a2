package schema

import (
	"time"

	"github.com/hookfeed/hook-ingestor/internal/domain"
)

// WebhookReceiver represents the webhook_receivers table - one intake point
// per row. IDs are assigned externally, not by the database.
type WebhookReceiver struct {
	// ID is the externally assigned receiver identifier used in the hook URL
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	// Label is a human-readable name for the receiver
	Label string `gorm:"column:label;not null;type:varchar(255)"`
	// TargetTable is the table the receiver projects payloads into
	TargetTable string `gorm:"column:target_table;not null;type:varchar(255)"`
	// AuthType selects how deliveries are authenticated: hmac or none
	AuthType domain.AuthType `gorm:"column:auth_type;not null;type:varchar(16);default:none"`
	// HMACSecret is the shared signing secret; required when AuthType is hmac
	HMACSecret string `gorm:"column:hmac_secret;type:text"`
	// CreatedAt is the timestamp when this receiver was registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this receiver was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WebhookReceiver model
func (WebhookReceiver) TableName() string {
	return "webhook_receivers"
}
