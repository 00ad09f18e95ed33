package hub

import (
	"net/http"
	"strings"

	"github.com/hubcentral/go-session-hub/users"
)

// CurrentUserHandler serves the authenticated principal's profile.
func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		user, err := s.users.GetByID(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		writeJSON(w, http.StatusOK, profileOf(user))
	}
}

// UpdateProfileHandler applies a partial update to the current user. A
// password change requires the current password alongside the new one.
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		user, err := s.users.GetByID(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User no longer exists")
			return
		}

		var body struct {
			FullName        string `json:"full_name"`
			Email           string `json:"email"`
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if body.FullName != "" {
			user.FullName = body.FullName
		}
		if body.Email != "" {
			newEmail := strings.ToLower(strings.TrimSpace(body.Email))
			if newEmail != user.Email {
				if _, err := s.users.GetByEmail(newEmail); err == nil {
					writeDetail(w, http.StatusBadRequest, "Email already registered")
					return
				}
				user.Email = newEmail
				user.Verified = false
			}
		}
		if body.NewPassword != "" {
			if !users.CheckPasswordHash(body.CurrentPassword, user.PasswordHash) {
				writeDetail(w, http.StatusBadRequest, "Incorrect password")
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
		}

		if err := s.users.Upsert(user); err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not update profile")
			return
		}
		writeJSON(w, http.StatusOK, profileOf(user))
	}
}
