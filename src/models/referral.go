package models

import (
	"tutorpay/src/types"

	"github.com/google/uuid"
)

// Referral is the credit ledger row linking an introducer to an introduced
// profile. A row may pre-exist the referred profile (cookie-bearing share
// links create one up front); attribution updates it rather than recreating it.
type Referral struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	AgentID           uint                     `gorm:"index" json:"agent_id"`
	ReferredProfileID *uint                    `json:"referred_profile_id,omitempty"`
	Status            types.ReferralStatus     `gorm:"size:16;default:Referred" json:"status"`
	AttributionMethod *types.AttributionMethod `gorm:"size:16" json:"attribution_method,omitempty"`

	Agent           *Profile `gorm:"foreignKey:agent_id" json:"agent,omitempty"`
	ReferredProfile *Profile `gorm:"foreignKey:referred_profile_id" json:"referred_profile,omitempty"`

	types.Timestamps
}
