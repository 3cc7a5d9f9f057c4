package models

import (
	"time"
	"tutorpay/src/types"
)

// Booking is a scheduled paid session. AgentID is a snapshot of the client's
// referrer taken at creation time; later attribution changes never move a
// booking's commission recipient.
type Booking struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	ClientID uint   `gorm:"index" json:"client_id,omitempty"`
	TutorID  uint   `gorm:"index" json:"tutor_id,omitempty"`
	AgentID  *uint  `json:"agent_id,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Currency string `gorm:"size:3;default:gbp" json:"currency,omitempty"`

	Status            types.BookingStatus `gorm:"size:16;default:Scheduled" json:"status,omitempty"`
	PaymentStatus     types.PaymentStatus `gorm:"size:16;default:Pending" json:"payment_status,omitempty"`
	CheckoutSessionId *string             `json:"checkout_session_id,omitempty"`
	StartsAt          *time.Time          `json:"starts_at,omitempty"`

	Client *Profile `gorm:"foreignKey:client_id" json:"client,omitempty"`
	Tutor  *Profile `gorm:"foreignKey:tutor_id" json:"tutor,omitempty"`
	Agent  *Profile `gorm:"foreignKey:agent_id" json:"agent,omitempty"`

	types.Timestamps
}
