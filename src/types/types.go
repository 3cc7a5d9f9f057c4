package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "Pending"
	PAYMENT_PAID     PaymentStatus = "Paid"
	PAYMENT_FAILED   PaymentStatus = "Failed"
	PAYMENT_REFUNDED PaymentStatus = "Refunded"
)

type BookingStatus string

const (
	BOOKING_SCHEDULED BookingStatus = "Scheduled"
	BOOKING_COMPLETED BookingStatus = "Completed"
	BOOKING_CANCELED  BookingStatus = "Canceled"
)

type ReferralStatus string

const (
	REFERRAL_REFERRED  ReferralStatus = "Referred"
	REFERRAL_SIGNED_UP ReferralStatus = "SignedUp"
)

// AttributionMethod records which signal won attribution for a signup.
type AttributionMethod string

const (
	ATTRIBUTION_URL    AttributionMethod = "url_parameter"
	ATTRIBUTION_COOKIE AttributionMethod = "cookie"
	ATTRIBUTION_MANUAL AttributionMethod = "manual_entry"
)

type TransactionKind string

const (
	TXN_TUTOR_PAYOUT        TransactionKind = "tutor_payout"
	TXN_PLATFORM_FEE        TransactionKind = "platform_fee"
	TXN_REFERRER_COMMISSION TransactionKind = "referrer_commission"
)

type FailedSettlementStatus string

const (
	SETTLEMENT_FAILED   FailedSettlementStatus = "failed"
	SETTLEMENT_RESOLVED FailedSettlementStatus = "resolved"
)

type ProfileRole string

const (
	ROLE_CLIENT ProfileRole = "client"
	ROLE_TUTOR  ProfileRole = "tutor"
	ROLE_AGENT  ProfileRole = "agent"
)

type APIEnv string

const (
	Local      APIEnv = "local"
	Test       APIEnv = "test"
	Production APIEnv = "production"
)

type CreateProfileRequestBody struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Role       string `json:"role" binding:"required,oneof=client tutor agent"`
	URLCode    string `json:"ref,omitempty" binding:"omitempty,referralcode"`
	ManualCode string `json:"referral_code,omitempty" binding:"omitempty,referralcode"`
}

type CreateBookingRequestBody struct {
	TutorID  uint   `json:"tutor_id" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	StartsAt string `json:"starts_at,omitempty"`
}
