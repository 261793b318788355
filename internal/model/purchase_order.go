package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder status enum constants
const (
	StatusCreated        = "created"
	StatusPendingPayment = "pending_payment"
	StatusPaid           = "paid"
	StatusSettled        = "settled"
	StatusCancelled      = "cancelled"
)

// statusRank orders the forward lifecycle. cancelled sits outside the happy
// path and is only reachable before paid.
var statusRank = map[string]int{
	StatusCreated:        0,
	StatusPendingPayment: 1,
	StatusPaid:           2,
	StatusSettled:        3,
	StatusCancelled:      4,
}

// CanTransition reports whether moving from one status to another respects the
// lifecycle: created -> pending_payment -> paid -> settled, with cancelled
// reachable from any pre-paid state. No regressions.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if to == StatusCancelled {
		return fromRank < statusRank[StatusPaid]
	}
	if from == StatusCancelled {
		return false
	}
	return toRank == fromRank+1
}

// Metadata is an opaque key-value blob attached at creation, stored as JSON.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("metadata: unsupported column type")
	}
	return json.Unmarshal(raw, m)
}

// PurchaseOrder is an order denominated in Pi, correlated to a provider
// payment through MerchantRef. PiPaymentID is written exactly once, when the
// order first transitions to paid.
type PurchaseOrder struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MerchantRef string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"merchant_ref"`
	Status      string          `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	AmountPi    decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"amount_pi"`
	Metadata    Metadata        `gorm:"type:jsonb" json:"metadata"`
	PiPaymentID *string         `gorm:"type:varchar(100)" json:"pi_payment_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
