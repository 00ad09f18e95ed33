package users

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is a coarse application role carried in the profile and in token
// claims.
type RoleType string

const (
	RoleAdmin  RoleType = "admin"
	RoleUser   RoleType = "user"
	RoleViewer RoleType = "viewer"
)

// NotificationPrefs are per-user notification switches, served as part of
// the profile document.
type NotificationPrefs struct {
	Email bool `json:"email"`
	InApp bool `json:"in_app"`
}

type User struct {
	ID           string    `json:"id,omitempty"`        // Unique identifier for the user
	Email        string    `json:"email,omitempty"`     // User's email address
	FullName     string    `json:"full_name,omitempty"` // Display name
	PasswordHash string    `json:"-"`                   // Hashed version of the user's password - never serialize
	Role         RoleType  `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`

	Active    bool `json:"is_active,omitempty"`
	Superuser bool `json:"is_superuser,omitempty"`
	Verified  bool `json:"is_verified,omitempty"`

	// MFA enrollment. PendingMFASecret holds the secret between enroll
	// and confirm; MFAEnabled flips only on confirmation.
	MFAEnabled       bool     `json:"is_mfa_enabled,omitempty"`
	MFASecret        string   `json:"-"`
	PendingMFASecret string   `json:"-"`
	RecoveryCodes    []string `json:"-"` // bcrypt hashes, spent on use

	NotificationPrefs NotificationPrefs `json:"notification_prefs,omitempty"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateRecoveryCodes returns count fresh recovery codes in plain text
// together with their bcrypt hashes. Only the hashes are stored; the plain
// codes are shown to the user exactly once.
func GenerateRecoveryCodes(count int) ([]string, []string, error) {
	plain := make([]string, 0, count)
	hashed := make([]string, 0, count)
	for i := 0; i < count; i++ {
		raw := make([]byte, 5)
		if _, err := rand.Read(raw); err != nil {
			return nil, nil, fmt.Errorf("generate recovery code: %w", err)
		}
		code := hex.EncodeToString(raw)
		hash, err := HashPassword(code)
		if err != nil {
			return nil, nil, fmt.Errorf("hash recovery code: %w", err)
		}
		plain = append(plain, code)
		hashed = append(hashed, hash)
	}
	return plain, hashed, nil
}

// ConsumeRecoveryCode checks code against the stored hashes and spends the
// matching one. Returns false when no hash matches.
func (u *User) ConsumeRecoveryCode(code string) bool {
	for i, hash := range u.RecoveryCodes {
		if CheckPasswordHash(code, hash) {
			u.RecoveryCodes = append(u.RecoveryCodes[:i], u.RecoveryCodes[i+1:]...)
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.Superuser || u.Role == RoleAdmin
}
