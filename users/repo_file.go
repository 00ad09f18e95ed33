package users

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// storedUser is the persistence shape. The public User type hides secrets
// from JSON serialization, so the file repo carries them explicitly.
type storedUser struct {
	User
	PasswordHash     string   `json:"password_hash"`
	MFASecret        string   `json:"mfa_secret,omitempty"`
	PendingMFASecret string   `json:"pending_mfa_secret,omitempty"`
	RecoveryCodes    []string `json:"recovery_codes,omitempty"`
}

// FileUserRepo is a UserRepo persisted as a single JSON file, loaded at
// startup and rewritten on every mutation. Suited to small deployments.
type FileUserRepo struct {
	mu    sync.RWMutex
	path  string
	users map[string]storedUser // keyed by lowercase email
}

var _ UserRepo = (*FileUserRepo)(nil)

// NewFileUserRepo loads (or creates) the user file under dataFolder.
func NewFileUserRepo(dataFolder string) (*FileUserRepo, error) {
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, fmt.Errorf("[NewFileUserRepo] MkdirAll: %w", err)
	}

	r := &FileUserRepo{
		path:  filepath.Join(dataFolder, "users.json"),
		users: make(map[string]storedUser),
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[NewFileUserRepo] ReadFile: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.users); err != nil {
			return nil, fmt.Errorf("[NewFileUserRepo] Unmarshal %s: %w", r.path, err)
		}
	}
	return r, nil
}

func (r *FileUserRepo) persist() error {
	data, err := json.MarshalIndent(r.users, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileUserRepo.persist] Marshal: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("[FileUserRepo.persist] WriteFile: %w", err)
	}
	return nil
}

func (r *FileUserRepo) Upsert(user *User) error {
	if user == nil || user.Email == "" {
		return fmt.Errorf("user email is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)

	// An email change must not leave the old key behind.
	for existingKey, existing := range r.users {
		if existing.ID == user.ID && existingKey != key {
			delete(r.users, existingKey)
		}
	}

	stored := storedUser{
		User:             *user,
		PasswordHash:     user.PasswordHash,
		MFASecret:        user.MFASecret,
		PendingMFASecret: user.PendingMFASecret,
		RecoveryCodes:    append([]string(nil), user.RecoveryCodes...),
	}
	r.users[key] = stored
	return r.persist()
}

func (r *FileUserRepo) Delete(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, strings.ToLower(email))
	return r.persist()
}

func (r *FileUserRepo) GetByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return stored.toUser(), nil
}

func (r *FileUserRepo) GetByID(id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.users {
		if stored.ID == id {
			return stored.toUser(), nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (r *FileUserRepo) List(offset, limit int) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emails := make([]string, 0, len(r.users))
	for email := range r.users {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	if offset >= len(emails) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(emails) {
		end = len(emails)
	}

	result := make([]*User, 0, end-offset)
	for _, email := range emails[offset:end] {
		stored := r.users[email]
		result = append(result, stored.toUser())
	}
	return result, nil
}

func (r *FileUserRepo) SetActive(email string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(email)
	stored, ok := r.users[key]
	if !ok {
		return fmt.Errorf("user not found")
	}
	stored.Active = active
	r.users[key] = stored
	return r.persist()
}

func (s storedUser) toUser() *User {
	user := s.User
	user.PasswordHash = s.PasswordHash
	user.MFASecret = s.MFASecret
	user.PendingMFASecret = s.PendingMFASecret
	user.RecoveryCodes = append([]string(nil), s.RecoveryCodes...)
	return &user
}
