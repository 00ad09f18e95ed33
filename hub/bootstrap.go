package hub

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hubcentral/go-session-hub/users"
)

// bootstrapAdmin makes sure a superuser exists so a fresh deployment can be
// signed into. A generated password is logged once on first creation.
func (s *Server) bootstrapAdmin() error {
	email := s.config.GetAdminEmail()
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil
	}

	password := s.config.GetAdminPassword()
	generated := false
	if password == "" {
		raw := make([]byte, 18)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("[Server bootstrapAdmin] failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(raw)
		generated = true
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("[Server bootstrapAdmin] failed to hash password: %w", err)
	}

	admin := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         users.RoleAdmin,
		CreatedAt:    time.Now(),
		Active:       true,
		Superuser:    true,
		Verified:     true,
	}
	if err := s.users.Upsert(admin); err != nil {
		return fmt.Errorf("[Server bootstrapAdmin] failed to store admin user: %w", err)
	}

	if generated {
		s.log.Info().Str("email", email).Str("password", password).Msg("created admin user with generated password")
	} else {
		s.log.Info().Str("email", email).Msg("created admin user")
	}
	return nil
}
