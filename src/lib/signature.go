package lib

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Sign computes a hex-encoded HMAC-SHA-256 over the exact payload bytes.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign. Comparison is constant-time.
func Verify(payload []byte, signature string, secret string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// NewReferralCookieToken builds the "referralId.signature" token carried by
// the attribution cookie.
func NewReferralCookieToken(referralID uuid.UUID, secret string) string {
	id := referralID.String()
	return fmt.Sprintf("%s.%s", id, Sign([]byte(id), secret))
}

// ParseReferralCookieToken splits and verifies a cookie token. A token whose
// signature does not verify returns ErrInvalidSignature; the attribution
// resolver treats that as tamper, not absence.
func ParseReferralCookieToken(token string, secret string) (uuid.UUID, error) {
	id, signature, found := strings.Cut(token, ".")
	if !found || id == "" || signature == "" {
		return uuid.Nil, ErrInvalidSignature
	}
	if !Verify([]byte(id), signature, secret) {
		return uuid.Nil, ErrInvalidSignature
	}
	referralID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidSignature
	}
	return referralID, nil
}
