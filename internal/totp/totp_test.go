package totp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubcentral/go-session-hub/internal/totp"
)

// RFC 6238 appendix B test secret ("12345678901234567890") and vectors,
// truncated from 8 digits to our 6.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeRFCVectors(t *testing.T) {
	vectors := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}

	for _, v := range vectors {
		code, err := totp.Code(rfcSecret, time.Unix(v.unix, 0).UTC())
		require.NoError(t, err)
		require.Equal(t, v.code, code)
	}
}

func TestValidateAcceptsAdjacentPeriods(t *testing.T) {
	now := time.Unix(1111111109, 0).UTC()

	previous, err := totp.Code(rfcSecret, now.Add(-totp.Period))
	require.NoError(t, err)
	next, err := totp.Code(rfcSecret, now.Add(totp.Period))
	require.NoError(t, err)

	require.True(t, totp.Validate(rfcSecret, previous, now))
	require.True(t, totp.Validate(rfcSecret, next, now))
	require.False(t, totp.Validate(rfcSecret, "000000", now))
	require.False(t, totp.Validate(rfcSecret, "28708", now))
}

func TestGenerateSecretUsableForCodes(t *testing.T) {
	secret, err := totp.GenerateSecret()
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	code, err := totp.Code(secret, time.Now())
	require.NoError(t, err)
	require.True(t, totp.Validate(secret, code, time.Now()))
}

func TestKeyURL(t *testing.T) {
	u := totp.KeyURL("SessionHub", "user@example.com", rfcSecret)
	require.Contains(t, u, "otpauth://totp/")
	require.Contains(t, u, "secret="+rfcSecret)
	require.Contains(t, u, "issuer=SessionHub")
}
