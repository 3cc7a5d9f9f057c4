package utils

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"os"
	"time"
	"tutorpay/src/common"
	"tutorpay/src/config"
	"tutorpay/src/db"
	"tutorpay/src/lib"
	"tutorpay/src/models"
	"tutorpay/src/types"

	"gorm.io/gorm"
)

const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func IsProd() bool {
	return os.Getenv("API_ENV") == string(types.Production)
}

// GenerateReferralCode returns a random uppercase alphanumeric code. Callers
// retry on the (unlikely) unique-index collision.
func GenerateReferralCode() (string, error) {
	code := make([]byte, config.ReferralCodeLength)
	max := big.NewInt(int64(len(referralCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = referralCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// CreateNewProfile creates a profile at signup and resolves its attribution
// from the request signals, all in one transaction. A tampered cookie token
// leaves the profile unreferred; it never blocks the signup itself.
func CreateNewProfile(params *types.CreateProfileRequestBody, cookieToken string) (uint, error) {
	var profileID uint
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		code, err := uniqueReferralCode(tx)
		if err != nil {
			return err
		}
		profile := models.Profile{
			Name:         params.Name,
			Email:        params.Email,
			Role:         params.Role,
			ReferralCode: code,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		profileID = profile.ID

		signals := common.AttributionSignals{
			URLCode:     params.URLCode,
			CookieToken: cookieToken,
			ManualCode:  params.ManualCode,
		}
		attribution, err := common.ResolveAttribution(signals, common.NewLookup(tx), config.GetReferralCookieSecret())
		if errors.Is(err, lib.ErrInvalidSignature) {
			log.Printf("[signup] Tampered referral cookie for %s, proceeding unreferred\n", params.Email)
			return nil
		}
		if err != nil {
			return err
		}
		if attribution == nil {
			return nil
		}
		return common.ApplyAttribution(tx, profile.ID, attribution)
	})
	if err != nil {
		return 0, err
	}
	return profileID, nil
}

func uniqueReferralCode(tx *gorm.DB) (string, error) {
	for i := 0; i < 5; i++ {
		code, err := GenerateReferralCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.
			Model(&models.Profile{}).
			Where("referral_code = ?", code).
			Count(&count).
			Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}

// CreateNewBooking creates a Pending booking for a client and opens the
// checkout session that pays it. The client's current referrer is snapshotted
// onto the booking here; later attribution changes do not touch it.
func CreateNewBooking(params *types.CreateBookingRequestBody, clientID uint) (uint, *string, error) {
	var bookingID uint
	var checkoutURL *string
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var client models.Profile
		if err := tx.
			Model(&models.Profile{}).
			Where("id = ?", clientID).
			First(&client).
			Error; err != nil {
			return err
		}
		currency := params.Currency
		if currency == "" {
			currency = "gbp"
		}
		booking := models.Booking{
			ClientID:      clientID,
			TutorID:       params.TutorID,
			AgentID:       client.ReferredByProfileID,
			Amount:        params.Amount,
			Currency:      currency,
			Status:        types.BOOKING_SCHEDULED,
			PaymentStatus: types.PAYMENT_PENDING,
		}
		if params.StartsAt != "" {
			startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, params.StartsAt)
			if err != nil {
				return err
			}
			booking.StartsAt = &startsAt
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		bookingID = booking.ID

		csID, csURL, err := lib.CreateBookingCheckout(booking.ID, booking.Amount, booking.Currency, "Tutoring session")
		if err != nil {
			return err
		}
		checkoutURL = csURL
		return tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("checkout_session_id", csID).
			Error
	})
	if err != nil {
		return 0, nil, err
	}
	return bookingID, checkoutURL, nil
}
