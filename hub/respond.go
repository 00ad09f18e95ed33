package hub

import (
	"encoding/json"
	"net/http"

	"github.com/hubcentral/go-session-hub/users"
)

// apiError is the error body every endpoint serves.
type apiError struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, apiError{Detail: detail})
}

// profileResponse is the public projection of a user document.
type profileResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	Active        bool   `json:"is_active"`
	Superuser     bool   `json:"is_superuser"`
	MFAEnabled    bool   `json:"is_mfa_enabled"`
	EmailVerified bool   `json:"is_verified"`
}

func profileOf(u *users.User) profileResponse {
	return profileResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Role:          string(u.Role),
		Active:        u.Active,
		Superuser:     u.Superuser,
		MFAEnabled:    u.MFAEnabled,
		EmailVerified: u.Verified,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
