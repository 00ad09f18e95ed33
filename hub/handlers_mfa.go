package hub

import (
	"net/http"
	"time"

	"github.com/hubcentral/go-session-hub/internal/totp"
	"github.com/hubcentral/go-session-hub/users"
)

const recoveryCodeCount = 8

// MFAEnableHandler starts TOTP enrollment: it generates a fresh secret,
// parks it against the user, and returns the otpauth URL authenticator apps
// enroll from. Enrollment is not live until confirmed.
func (s *Server) MFAEnableHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		user, err := s.users.GetByID(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		if user.MFAEnabled {
			writeDetail(w, http.StatusBadRequest, "MFA is already enabled")
			return
		}

		secret, err := totp.GenerateSecret()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not generate secret")
			return
		}
		user.PendingMFASecret = secret
		if err := s.users.Upsert(user); err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not store enrollment")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"secret":      secret,
			"otpauth_url": totp.KeyURL(s.config.GetAppName(), user.Email, secret),
		})
	}
}

// MFAConfirmHandler completes enrollment with a code from the authenticator
// app. Recovery codes are generated here and returned exactly once.
func (s *Server) MFAConfirmHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		user, err := s.users.GetByID(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		if user.PendingMFASecret == "" {
			writeDetail(w, http.StatusBadRequest, "No MFA enrollment in progress")
			return
		}

		var body struct {
			OTPCode string `json:"otp_code"`
		}
		if err := decodeJSON(r, &body); err != nil || body.OTPCode == "" {
			writeDetail(w, http.StatusBadRequest, "Missing otp_code")
			return
		}
		if !totp.Validate(user.PendingMFASecret, body.OTPCode, time.Now()) {
			writeDetail(w, http.StatusBadRequest, "Invalid authentication code")
			return
		}

		plain, hashed, err := users.GenerateRecoveryCodes(recoveryCodeCount)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not generate recovery codes")
			return
		}

		user.MFASecret = user.PendingMFASecret
		user.PendingMFASecret = ""
		user.MFAEnabled = true
		user.RecoveryCodes = hashed
		if err := s.users.Upsert(user); err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not complete enrollment")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user":           profileOf(user),
			"recovery_codes": plain,
		})
	}
}

// MFADisableHandler turns TOTP off; requires a currently-valid code or a
// recovery code.
func (s *Server) MFADisableHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		user, err := s.users.GetByID(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		if !user.MFAEnabled {
			writeDetail(w, http.StatusBadRequest, "MFA is not enabled")
			return
		}

		var body struct {
			OTPCode string `json:"otp_code"`
		}
		if err := decodeJSON(r, &body); err != nil || body.OTPCode == "" {
			writeDetail(w, http.StatusBadRequest, "Missing otp_code")
			return
		}
		if !totp.Validate(user.MFASecret, body.OTPCode, time.Now()) && !user.ConsumeRecoveryCode(body.OTPCode) {
			writeDetail(w, http.StatusBadRequest, "Invalid authentication code")
			return
		}

		user.MFAEnabled = false
		user.MFASecret = ""
		user.PendingMFASecret = ""
		user.RecoveryCodes = nil
		if err := s.users.Upsert(user); err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not disable MFA")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
