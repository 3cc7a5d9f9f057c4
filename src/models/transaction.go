package models

import (
	"tutorpay/src/types"

	"github.com/google/uuid"
)

// Transaction is a single settlement ledger entry. Rows are only ever written
// by the settlement engine, as a complete set per booking, and never updated.
// The composite unique index backs the settlement idempotency check: a
// redelivered checkout event conflicts instead of double-paying.
type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	BookingID       uint                  `gorm:"uniqueIndex:idx_settlement_once,priority:1" json:"booking_id"`
	CheckoutEventID string                `gorm:"uniqueIndex:idx_settlement_once,priority:2;size:255" json:"checkout_event_id"`
	Kind            types.TransactionKind `gorm:"uniqueIndex:idx_settlement_once,priority:3;size:24" json:"kind"`
	Amount          int64                 `json:"amount"`
	Currency        string                `gorm:"size:3" json:"currency"`

	Booking Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
