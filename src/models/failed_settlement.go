package models

import (
	"time"
	"tutorpay/src/types"
)

// FailedSettlement is a dead-letter row for webhook events that verified at
// the transport level but failed settlement. The unique index on EventID
// keeps provider redeliveries of the same failed event down to one row.
// Rows are marked resolved by the out-of-band reprocessor.
type FailedSettlement struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	EventID   string `gorm:"uniqueIndex;size:255" json:"event_id"`
	EventType string `gorm:"size:64" json:"event_type"`
	BookingID *uint  `json:"booking_id,omitempty"`
	// CheckoutSessionID preserves the settlement idempotency key so a retried
	// settle uses the same pair the original delivery would have.
	CheckoutSessionID *string                      `gorm:"size:255" json:"checkout_session_id,omitempty"`
	Status            types.FailedSettlementStatus `gorm:"size:16;default:failed" json:"status"`
	ErrorMsg          string                       `gorm:"column:error_message" json:"error_message,omitempty"`
	ResolvedAt        *time.Time                   `json:"resolved_at,omitempty"`

	types.Timestamps
}
