package token

import (
	"fmt"
	"sort"
	"sync"
)

// InMemoryRefreshTokenRepo is an in-memory implementation of RefreshTokenRepo
type InMemoryRefreshTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]StoredRefreshToken // token value -> stored token
	ids    map[string]string             // stable ID -> token value
}

var _ RefreshTokenRepo = (*InMemoryRefreshTokenRepo)(nil)

// NewInMemoryRefreshTokenRepo creates a new in-memory refresh token repository
func NewInMemoryRefreshTokenRepo() *InMemoryRefreshTokenRepo {
	return &InMemoryRefreshTokenRepo{
		tokens: make(map[string]StoredRefreshToken),
		ids:    make(map[string]string),
	}
}

func (r *InMemoryRefreshTokenRepo) Upsert(token *StoredRefreshToken) error {
	if token == nil || token.Token == "" {
		return fmt.Errorf("token is required")
	}
	if token.ID == "" {
		return fmt.Errorf("token ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = *token
	r.ids[token.ID] = token.Token
	return nil
}

func (r *InMemoryRefreshTokenRepo) Get(token string) (*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	copied := stored
	return &copied, nil
}

func (r *InMemoryRefreshTokenRepo) GetByID(id string) (*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokenValue, ok := r.ids[id]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	stored := r.tokens[tokenValue]
	copied := stored
	return &copied, nil
}

func (r *InMemoryRefreshTokenRepo) ListByUser(userID string) ([]*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*StoredRefreshToken
	for _, stored := range r.tokens {
		if stored.UserID == userID {
			copied := stored
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryRefreshTokenRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.tokens[token]; ok {
		delete(r.ids, stored.ID)
		delete(r.tokens, token)
	}
	return nil
}

func (r *InMemoryRefreshTokenRepo) DeleteByID(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tokenValue, ok := r.ids[id]; ok {
		delete(r.tokens, tokenValue)
		delete(r.ids, id)
	}
	return nil
}

func (r *InMemoryRefreshTokenRepo) DeleteByUser(userID, keepToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for tokenValue, stored := range r.tokens {
		if stored.UserID != userID || tokenValue == keepToken {
			continue
		}
		delete(r.ids, stored.ID)
		delete(r.tokens, tokenValue)
	}
	return nil
}
