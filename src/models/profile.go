package models

import "tutorpay/src/types"

// Profile is a platform account. Attribution fields are written at most once,
// by the signup flow, through the conditional update in common.ApplyAttribution.
type Profile struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `gorm:"uniqueIndex" json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	// ReferralCode is assigned at creation and stored uppercase. Matching is
	// case-insensitive on the lookup side.
	ReferralCode        string                   `gorm:"uniqueIndex;size:16" json:"referral_code,omitempty"`
	ReferredByProfileID *uint                    `json:"referred_by_profile_id,omitempty"`
	ReferralSource      *types.AttributionMethod `gorm:"size:16" json:"referral_source,omitempty"`

	ReferredBy *Profile `gorm:"foreignKey:referred_by_profile_id" json:"referred_by,omitempty"`

	types.Timestamps
}
