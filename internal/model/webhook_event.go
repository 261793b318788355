package model

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent logs every inbound provider callback, verified or not. Rows for
// orders that did not exist at delivery time stay unprocessed so they can be
// replayed by an operator once the order shows up.
type WebhookEvent struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventType      string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	MerchantRef    string     `gorm:"type:varchar(30);index" json:"merchant_ref"`
	PiPaymentID    string     `gorm:"type:varchar(100)" json:"pi_payment_id"`
	Payload        string     `gorm:"type:text;not null" json:"payload"`
	SignatureValid bool       `gorm:"not null;default:false;index" json:"signature_valid"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ProcessingNote string     `gorm:"type:text" json:"processing_note"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
