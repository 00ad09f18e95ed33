package authclient

import "time"

// TokenPair is the response of the token and refresh endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Profile is the authenticated principal's document as served by the
// current-user endpoint. It is replaced wholesale on every fetch.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role,omitempty"`
	Active        bool   `json:"is_active"`
	Superuser     bool   `json:"is_superuser"`
	MFAEnabled    bool   `json:"is_mfa_enabled"`
	EmailVerified bool   `json:"is_verified,omitempty"`
}

// ProfileUpdate carries a partial profile update. A password change requires
// the current password alongside the new one.
type ProfileUpdate struct {
	FullName        string `json:"full_name,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
}

// MFAEnrollment is returned when TOTP enrollment starts. The secret is shown
// exactly once; the otpauth URL is what authenticator apps encode as a QR.
type MFAEnrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// MFAConfirmation completes enrollment and carries the one-time recovery
// codes alongside the refreshed profile.
type MFAConfirmation struct {
	User          Profile  `json:"user"`
	RecoveryCodes []string `json:"recovery_codes"`
}

// SessionInfo describes one active login session (one live refresh token).
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
