package config

import "time"

const (
	tokenSecretVar   = "TOKEN_SECRET"
	accessExpiryVar  = "ACCESS_TOKEN_EXPIRY"
	refreshExpiryVar = "REFRESH_TOKEN_EXPIRY"
	resetExpiryVar   = "RESET_TOKEN_EXPIRY"
)

type TokenConfig interface {
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetResetTokenExpiry() time.Duration
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

// GetTokenSecret returns the HMAC signing key. The default is only fit for
// local development.
func (Tokens) GetTokenSecret() string {
	return GetEnv(tokenSecretVar, "dev-secret-change-me")
}

// GetAccessTokenExpiry returns the access-token lifetime, overridable as a
// Go duration string (ACCESS_TOKEN_EXPIRY=15m).
func (Tokens) GetAccessTokenExpiry() time.Duration {
	return getDurationEnv(accessExpiryVar, 30*time.Minute)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return getDurationEnv(refreshExpiryVar, 7*24*time.Hour)
}

// GetResetTokenExpiry returns the lifetime of password-recovery tokens.
func (Tokens) GetResetTokenExpiry() time.Duration {
	return getDurationEnv(resetExpiryVar, 30*time.Minute)
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
