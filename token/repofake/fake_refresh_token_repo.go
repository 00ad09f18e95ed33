package fakerefreshrepo

import (
	"sort"
	"sync"

	"github.com/hubcentral/go-session-hub/token"
	"github.com/pkg/errors"
)

var _ token.RefreshTokenRepo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]*token.StoredRefreshToken // token value -> stored token
	ids    map[string]string                    // id -> token value
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*token.StoredRefreshToken),
		ids:    make(map[string]string),
	}
}

func (r *FakeRefreshTokenRepo) Upsert(stored *token.StoredRefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	copied := *stored
	r.tokens[stored.Token] = &copied
	r.ids[stored.ID] = stored.Token
	return nil
}

func (r *FakeRefreshTokenRepo) Get(tokenValue string) (*token.StoredRefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	stored, ok := r.tokens[tokenValue]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *stored
	return &copied, nil
}

func (r *FakeRefreshTokenRepo) GetByID(id string) (*token.StoredRefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	tokenValue, ok := r.ids[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *r.tokens[tokenValue]
	return &copied, nil
}

func (r *FakeRefreshTokenRepo) ListByUser(userID string) ([]*token.StoredRefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var result []*token.StoredRefreshToken
	for _, stored := range r.tokens {
		if stored.UserID == userID {
			copied := *stored
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *FakeRefreshTokenRepo) Delete(tokenValue string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.tokens[tokenValue]
	if !ok {
		return errors.New("not found")
	}
	delete(r.ids, stored.ID)
	delete(r.tokens, tokenValue)
	return nil
}

func (r *FakeRefreshTokenRepo) DeleteByID(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	tokenValue, ok := r.ids[id]
	if !ok {
		return errors.New("not found")
	}
	delete(r.ids, id)
	delete(r.tokens, tokenValue)
	return nil
}

func (r *FakeRefreshTokenRepo) DeleteByUser(userID, keepToken string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for tokenValue, stored := range r.tokens {
		if stored.UserID != userID || tokenValue == keepToken {
			continue
		}
		delete(r.ids, stored.ID)
		delete(r.tokens, tokenValue)
	}
	return nil
}
