package token

import "time"

// StoredRefreshToken is one live login session: the opaque refresh token
// plus the device metadata that makes sessions listable and individually
// revocable.
type StoredRefreshToken struct {
	ID        string // Stable identifier exposed by the session endpoints
	Token     string // Opaque refresh token value
	UserID    string
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type RefreshTokenRepo interface {
	Upsert(token *StoredRefreshToken) error
	Get(token string) (*StoredRefreshToken, error)
	GetByID(id string) (*StoredRefreshToken, error)
	ListByUser(userID string) ([]*StoredRefreshToken, error)
	Delete(token string) error
	DeleteByID(id string) error

	// DeleteByUser removes all of a user's refresh tokens except
	// keepToken; pass "" to remove every one.
	DeleteByUser(userID, keepToken string) error
}
