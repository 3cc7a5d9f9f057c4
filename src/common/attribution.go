package common

import (
	"errors"
	"log"
	"strings"
	"tutorpay/src/lib"
	"tutorpay/src/models"
	"tutorpay/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAttributionTaken signals a write-once violation: the profile already has
// a referrer and the conditional update matched no row.
var ErrAttributionTaken = errors.New("profile attribution already set")

// AttributionSignals are the up-to-three referral signals a signup request can
// carry. Empty string means the signal is absent.
type AttributionSignals struct {
	URLCode     string
	CookieToken string
	ManualCode  string
}

// Attribution is a resolved referrer. ReferralID is set only when the cookie
// signal won, pointing at the pre-existing referral row to transition.
type Attribution struct {
	AgentID    uint
	ReferralID *uuid.UUID
	Method     types.AttributionMethod
}

// Lookup is the read surface ResolveAttribution decides against. Not-found is
// (nil, nil); errors are store failures.
type Lookup interface {
	ProfileByReferralCode(code string) (*models.Profile, error)
	ReferralByID(id uuid.UUID) (*models.Referral, error)
}

// ResolveAttribution picks at most one referrer from the supplied signals.
//
// Priority is fixed: URL code, then signed cookie, then manual code. A URL or
// manual code that matches nothing counts as absent and falls through, so a
// stale link cannot eat a valid lower-priority signal. A cookie whose
// signature fails verification is adversarial input and stops resolution
// outright with no attribution, even when a manual code was also supplied;
// degrading to the next signal would let a stripped cookie redirect
// commission. (nil, nil) means the signup proceeds unreferred.
func ResolveAttribution(signals AttributionSignals, lookup Lookup, cookieSecret string) (*Attribution, error) {
	if code := signals.URLCode; code != "" {
		profile, err := lookup.ProfileByReferralCode(strings.ToUpper(code))
		if err != nil {
			return nil, err
		}
		if profile != nil {
			return &Attribution{AgentID: profile.ID, Method: types.ATTRIBUTION_URL}, nil
		}
		log.Printf("[attribution] URL code %q matched no profile, falling through\n", code)
	}

	if token := signals.CookieToken; token != "" {
		referralID, err := lib.ParseReferralCookieToken(token, cookieSecret)
		if err != nil {
			log.Printf("[attribution] Cookie token failed verification: %s\n", err.Error())
			return nil, err
		}
		referral, err := lookup.ReferralByID(referralID)
		if err != nil {
			return nil, err
		}
		if referral != nil {
			return &Attribution{
				AgentID:    referral.AgentID,
				ReferralID: &referral.ID,
				Method:     types.ATTRIBUTION_COOKIE,
			}, nil
		}
		log.Printf("[attribution] Cookie referral %s no longer exists, falling through\n", referralID)
	}

	if code := signals.ManualCode; code != "" {
		profile, err := lookup.ProfileByReferralCode(strings.ToUpper(code))
		if err != nil {
			return nil, err
		}
		if profile != nil {
			return &Attribution{AgentID: profile.ID, Method: types.ATTRIBUTION_MANUAL}, nil
		}
		log.Printf("[attribution] Manual code %q matched no profile\n", code)
	}

	return nil, nil
}

// ApplyAttribution persists a resolution onto a freshly created profile and
// its referral row. The profile update is conditional on the attribution
// fields still being empty; the store, not caller discipline, enforces
// write-once.
func ApplyAttribution(tx *gorm.DB, profileID uint, attribution *Attribution) error {
	res := tx.
		Model(&models.Profile{}).
		Where("id = ? AND referred_by_profile_id IS NULL", profileID).
		Updates(map[string]any{
			"referred_by_profile_id": attribution.AgentID,
			"referral_source":        attribution.Method,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAttributionTaken
	}

	referralID := attribution.ReferralID
	if referralID == nil {
		referral := models.Referral{
			AgentID: attribution.AgentID,
			Status:  types.REFERRAL_REFERRED,
		}
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
		referralID = &referral.ID
	}
	return tx.
		Model(&models.Referral{}).
		Where("id = ?", *referralID).
		Updates(map[string]any{
			"referred_profile_id": profileID,
			"status":              types.REFERRAL_SIGNED_UP,
			"attribution_method":  attribution.Method,
		}).
		Error
}

type dbLookup struct {
	tx *gorm.DB
}

// NewLookup returns the gorm-backed Lookup used outside of tests.
func NewLookup(tx *gorm.DB) Lookup {
	return &dbLookup{tx: tx}
}

func (l *dbLookup) ProfileByReferralCode(code string) (*models.Profile, error) {
	if id, ok := lib.CachedReferralCode(code); ok {
		var profile models.Profile
		err := l.tx.
			Model(&models.Profile{}).
			Where("id = ?", id).
			First(&profile).
			Error
		if err == nil {
			return &profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	var profile models.Profile
	err := l.tx.
		Model(&models.Profile{}).
		Where("UPPER(referral_code) = ?", strings.ToUpper(code)).
		First(&profile).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lib.CacheReferralCode(strings.ToUpper(code), profile.ID)
	return &profile, nil
}

func (l *dbLookup) ReferralByID(id uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := l.tx.
		Model(&models.Referral{}).
		Where("id = ?", id).
		First(&referral).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &referral, nil
}
