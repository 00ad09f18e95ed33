// Package totp implements RFC 6238 time-based one-time passwords over the
// standard HMAC primitives, enough for enrollment and verification of
// authenticator apps.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	// Period is the code rotation interval.
	Period = 30 * time.Second

	// Digits is the code length.
	Digits = 6

	secretLength = 20 // bytes, per RFC 4226 recommendation for SHA-1
)

// GenerateSecret returns a new base32-encoded shared secret.
func GenerateSecret() (string, error) {
	secret := make([]byte, secretLength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Wrap(err, "[totp.GenerateSecret] rand.Read")
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// KeyURL builds the otpauth URL an authenticator app enrolls from; it is the
// payload QR codes encode.
func KeyURL(issuer, account, secret string) string {
	u := url.URL{
		Scheme: "otpauth",
		Host:   "totp",
		Path:   "/" + issuer + ":" + account,
	}
	q := u.Query()
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%.0f", Period.Seconds()))
	u.RawQuery = q.Encode()
	return u.String()
}

// Code computes the TOTP value for the given time.
func Code(secret string, at time.Time) (string, error) {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", errors.Wrap(err, "[totp.Code] decode secret")
	}

	counter := uint64(at.Unix()) / uint64(Period.Seconds())
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation per RFC 4226 §5.3.
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, code%1_000_000), nil
}

// Validate checks a submitted code against the secret, accepting one period
// of clock skew in either direction.
func Validate(secret, code string, at time.Time) bool {
	if len(code) != Digits {
		return false
	}
	for _, skew := range []time.Duration{0, -Period, Period} {
		expected, err := Code(secret, at.Add(skew))
		if err != nil {
			return false
		}
		if hmac.Equal([]byte(expected), []byte(code)) {
			return true
		}
	}
	return false
}
