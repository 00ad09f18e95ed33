package hub

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hubcentral/go-session-hub/internal/totp"
	"github.com/hubcentral/go-session-hub/token"
	"github.com/hubcentral/go-session-hub/users"
)

// mfaRequiredDetail is part of the wire contract: clients match on it to
// tell "needs a one-time code" apart from a plain rejection.
const mfaRequiredDetail = "MFA verification required"

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenHandler is the password-grant login endpoint. Credentials arrive
// form-encoded with the email in the `username` field; accounts with MFA
// enabled additionally need `otp_code` (a recovery code is accepted there).
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		if grant := r.PostFormValue("grant_type"); grant != "" && grant != "password" {
			writeDetail(w, http.StatusBadRequest, "Unsupported grant type")
			return
		}

		email := strings.ToLower(strings.TrimSpace(r.PostFormValue("username")))
		password := r.PostFormValue("password")

		user, err := s.users.GetByEmail(email)
		if err != nil || !users.CheckPasswordHash(password, user.PasswordHash) {
			writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
			return
		}
		if !user.Active {
			writeDetail(w, http.StatusBadRequest, "Inactive user")
			return
		}

		if user.MFAEnabled {
			otpCode := r.PostFormValue("otp_code")
			if otpCode == "" {
				writeDetail(w, http.StatusUnauthorized, mfaRequiredDetail)
				return
			}
			if !totp.Validate(user.MFASecret, otpCode, time.Now()) && !user.ConsumeRecoveryCode(otpCode) {
				writeDetail(w, http.StatusUnauthorized, "Invalid authentication code")
				return
			}
		}

		user.LastLogin = time.Now()
		if err := s.users.Upsert(user); err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("failed to record login")
		}

		pair, err := s.tokens.Issue(user, sessionMeta(r))
		if err != nil {
			s.log.Error().Err(err).Msg("token issue failed")
			writeDetail(w, http.StatusInternalServerError, "Could not issue tokens")
			return
		}
		writeJSON(w, http.StatusOK, pairResponse(pair))
	}
}

// RefreshHandler rotates a refresh token for a fresh pair.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := decodeJSON(r, &body); err != nil || body.RefreshToken == "" {
			writeDetail(w, http.StatusBadRequest, "Missing refresh token")
			return
		}

		pair, err := s.tokens.Rotate(body.RefreshToken, sessionMeta(r))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		writeJSON(w, http.StatusOK, pairResponse(pair))
	}
}

// LogoutHandler revokes a refresh token. Unknown tokens are not an error:
// logout is best-effort on both sides.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = decodeJSON(r, &body)
		if body.RefreshToken != "" {
			s.tokens.Revoke(body.RefreshToken)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PasswordRecoveryHandler starts the recovery flow. It answers 202 whether
// or not the address exists, so it cannot be used to probe for accounts.
func (s *Server) PasswordRecoveryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Email == "" {
			writeDetail(w, http.StatusBadRequest, "Missing email")
			return
		}

		user, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(body.Email)))
		if err == nil && user.Active {
			resetToken, err := s.tokens.IssueResetToken(user)
			if err != nil {
				s.log.Error().Err(err).Msg("reset token issue failed")
			} else {
				// TODO: deliver by email once an SMTP sender is wired up.
				s.log.Info().Str("email", user.Email).Str("reset_token", resetToken).Msg("password reset requested")
			}
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

// ResetPasswordHandler completes recovery. Every live session of the user is
// revoked once the password changes.
func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Token == "" {
			writeDetail(w, http.StatusBadRequest, "Missing token")
			return
		}

		userID, err := s.tokens.ValidateResetToken(body.Token)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}

		user, err := s.users.GetByID(userID)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}

		if err := users.ValidatePasswordStrength(body.NewPassword); err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := users.HashPassword(body.NewPassword)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not update password")
			return
		}
		user.PasswordHash = hash
		if err := s.users.Upsert(user); err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not update password")
			return
		}

		if err := s.tokens.RevokeOtherSessions(user.ID, ""); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to revoke sessions after reset")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func pairResponse(pair *token.Pair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}

func sessionMeta(r *http.Request) token.SessionMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		ip = strings.TrimSpace(strings.SplitN(ip, ",", 2)[0])
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	return token.SessionMeta{
		UserAgent: r.UserAgent(),
		IPAddress: ip,
	}
}
