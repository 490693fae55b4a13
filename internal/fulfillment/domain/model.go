package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record marks a payment session as fulfilled. Rows are append-only; the
// unique session_id index is what makes fulfillment idempotent across
// delivery paths and service instances.
type Record struct {
	ID        snowflake.ID `json:"-" gorm:"primaryKey"`
	SessionID string       `json:"session_id" gorm:"type:text;not null;uniqueIndex:ux_fulfillments_session_id"`
	UserID    string       `json:"user_id" gorm:"type:text;not null"`
	ProductID string       `json:"product_id" gorm:"type:text;not null"`
	Quantity  int64        `json:"quantity" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Record) TableName() string { return "fulfillments" }

// Payment status values reported by the provider for a checkout session.
const (
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusPaid              = "paid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Session is the provider checkout session as seen by the engine. It is
// re-fetched by id on every inspection, never stored.
type Session struct {
	ID               string
	PaymentStatus    string
	ProductID        string
	UserID           string
	LineItemQuantity int64
	HasLineItems     bool
}
