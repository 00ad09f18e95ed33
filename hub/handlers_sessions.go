package hub

import (
	"net/http"
	"time"
)

type sessionResponse struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionsListHandler lists the caller's live login sessions. Refresh token
// values never leave the server; sessions are addressed by their stable IDs.
func (s *Server) SessionsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		stored, err := s.tokens.SessionsForUser(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not list sessions")
			return
		}

		sessions := make([]sessionResponse, 0, len(stored))
		for _, t := range stored {
			sessions = append(sessions, sessionResponse{
				ID:        t.ID,
				UserAgent: t.UserAgent,
				IPAddress: t.IPAddress,
				CreatedAt: t.CreatedAt,
				ExpiresAt: t.ExpiresAt,
			})
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

// SessionRevokeHandler terminates one session by ID, verifying ownership.
func (s *Server) SessionRevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		sessionID := r.PathValue("id")
		if sessionID == "" {
			writeDetail(w, http.StatusBadRequest, "Missing session id")
			return
		}
		if err := s.tokens.RevokeSessionByID(claims.UserID, sessionID); err != nil {
			writeDetail(w, http.StatusNotFound, "Session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionsRevokeOthersHandler terminates every session of the caller except
// the one holding the supplied refresh token.
func (s *Server) SessionsRevokeOthersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = decodeJSON(r, &body)

		if err := s.tokens.RevokeOtherSessions(claims.UserID, body.RefreshToken); err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not revoke sessions")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
