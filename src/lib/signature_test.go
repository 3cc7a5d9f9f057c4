package lib

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-cookie-secret"

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte("c2d0a7de-6f41-4b5c-9a1e-000000000001")
	sig := Sign(payload, testSecret)
	assert.True(t, Verify(payload, sig, testSecret))
}

func TestVerifyWrongSecret(t *testing.T) {
	payload := []byte("payload")
	sig := Sign(payload, testSecret)
	assert.False(t, Verify(payload, sig, "another-secret"))
}

func TestVerifySingleByteTamper(t *testing.T) {
	payload := []byte("payload")
	sig := Sign(payload, testSecret)
	for i := 0; i < len(sig); i++ {
		flipped := []byte(sig)
		if flipped[i] == 'a' {
			flipped[i] = 'b'
		} else {
			flipped[i] = 'a'
		}
		assert.False(t, Verify(payload, string(flipped), testSecret), "mutated signature at byte %d must not verify", i)
	}
}

func TestVerifyNonHexSignature(t *testing.T) {
	assert.False(t, Verify([]byte("payload"), "not-hex!", testSecret))
}

func TestReferralCookieTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	token := NewReferralCookieToken(id, testSecret)
	parsed, err := ParseReferralCookieToken(token, testSecret)
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestReferralCookieTokenTampered(t *testing.T) {
	id := uuid.New()
	token := NewReferralCookieToken(id, testSecret)

	last := token[len(token)-1]
	tampered := token[:len(token)-1]
	if last == '0' {
		tampered += "1"
	} else {
		tampered += "0"
	}
	_, err := ParseReferralCookieToken(tampered, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestReferralCookieTokenSwappedID(t *testing.T) {
	token := NewReferralCookieToken(uuid.New(), testSecret)
	sig := token[strings.Index(token, ".")+1:]
	forged := uuid.New().String() + "." + sig
	_, err := ParseReferralCookieToken(forged, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestReferralCookieTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "justonepart", ".", "a.", ".b", "not-a-uuid.deadbeef"} {
		_, err := ParseReferralCookieToken(token, testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature, "token %q", token)
	}
}
