// Package token is the session-token service: it issues, validates,
// rotates, and revokes the token pairs every app in the deployment runs on.
// Access tokens are signed JWTs carrying the principal's identity; refresh
// tokens are opaque stored values with device metadata, so each one doubles
// as a listable, individually revocable login session.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hubcentral/go-session-hub/users"
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

const (
	refreshTokenLength = 32 // bytes, 256 bits
	resetTokenPurpose  = "password-reset"
)

// Claims is what a validated access token asserts about its bearer.
type Claims struct {
	UserID    string
	Email     string
	Role      users.RoleType
	Superuser bool
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is an issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int
}

// SessionMeta is the device metadata recorded with each refresh token.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// Service is the defined interface every consumer of the token authority
// programs against.
type Service interface {
	Issue(user *users.User, meta SessionMeta) (*Pair, error)
	Validate(rawToken string) (*Claims, error)
	Rotate(refreshToken string, meta SessionMeta) (*Pair, error)
	Revoke(refreshToken string)
}

// Manager implements Service with JWT access tokens and stored opaque
// refresh tokens.
type Manager struct {
	repo               RefreshTokenRepo
	userRepo           users.UserRepo
	signer             Signer
	issuer             string
	audience           string
	revokedCache       RevokedTokenCache
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	resetTokenExpiry   time.Duration
	nowFunc            func() time.Time
}

var _ Service = (*Manager)(nil)

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

// WithResetTokenExpiry sets the lifetime of password-recovery tokens.
func WithResetTokenExpiry(resetTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.resetTokenExpiry = resetTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithAudience(audience string) ManagerOption {
	return func(m *Manager) {
		m.audience = audience
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(repo RefreshTokenRepo, userRepo users.UserRepo, signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:         repo,
		userRepo:     userRepo,
		signer:       signer,
		revokedCache: NewInMemoryRevokedTokenCache(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 30 * time.Minute
	}
	if m.refreshTokenExpiry == 0 {
		m.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if m.resetTokenExpiry == 0 {
		m.resetTokenExpiry = 30 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Issue creates a token pair for an authenticated user and records the
// refresh token as a new login session.
func (m *Manager) Issue(user *users.User, meta SessionMeta) (*Pair, error) {
	accessToken, err := m.createAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] createAccessToken")
	}

	refreshToken, err := m.createRefreshToken(user.ID, meta)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] createRefreshToken")
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(m.accessTokenExpiry.Seconds()),
	}, nil
}

// Validate parses and verifies an access token, returning its claims.
// Expired, revoked, and malformed tokens produce distinguishable errors, so
// callers never have to infer the cause from a bare failure.
func (m *Manager) Validate(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.NewParser(jwt.WithTimeFunc(m.nowFunc)).Parse(rawToken, m.signer.GetVerificationKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	if jti != "" && m.revokedCache.IsRevoked(jti) {
		return nil, ErrTokenRevoked
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	superuser, _ := claims["superuser"].(bool)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	return &Claims{
		UserID:    sub,
		Email:     email,
		Role:      users.RoleType(role),
		Superuser: superuser,
		JTI:       jti,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// Rotate exchanges a refresh token for a fresh pair. The old refresh token
// is deleted first, so a replayed token fails.
func (m *Manager) Rotate(refreshToken string, meta SessionMeta) (*Pair, error) {
	stored, err := m.repo.Get(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if m.nowFunc().After(stored.ExpiresAt) {
		_ = m.repo.Delete(refreshToken)
		return nil, ErrRefreshTokenExpired
	}

	user, err := m.userRepo.GetByID(stored.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Rotate] user not found for refresh token")
	}
	if !user.Active {
		return nil, errors.New("[Manager.Rotate] user is not active")
	}

	if err := m.repo.Delete(refreshToken); err != nil {
		return nil, errors.Wrap(err, "[Manager.Rotate] Delete")
	}

	return m.Issue(user, meta)
}

// Revoke deletes a refresh token. Revoking an unknown token is a no-op:
// the logout path is best-effort end to end.
func (m *Manager) Revoke(refreshToken string) {
	_ = m.repo.Delete(refreshToken)
}

// RevokeAccessToken revokes a still-valid access token by its JTI.
func (m *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := m.Validate(rawToken)
	if err != nil {
		return err
	}
	if claims.JTI == "" {
		return errors.New("[Manager.RevokeAccessToken] token missing jti claim")
	}
	return m.revokedCache.Add(claims.JTI, claims.ExpiresAt)
}

// SessionsForUser lists a user's live refresh tokens.
func (m *Manager) SessionsForUser(userID string) ([]*StoredRefreshToken, error) {
	return m.repo.ListByUser(userID)
}

// RevokeSessionByID deletes a single session by its stable ID, verifying
// ownership.
func (m *Manager) RevokeSessionByID(userID, sessionID string) error {
	stored, err := m.repo.GetByID(sessionID)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if stored.UserID != userID {
		return ErrInvalidRefreshToken
	}
	return m.repo.DeleteByID(sessionID)
}

// RevokeOtherSessions deletes every session of the user except the one
// holding keepToken. Pass "" to revoke them all.
func (m *Manager) RevokeOtherSessions(userID, keepToken string) error {
	return m.repo.DeleteByUser(userID, keepToken)
}

// IssueResetToken creates a short-lived, single-purpose token for password
// recovery.
func (m *Manager) IssueResetToken(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":     m.issuer,
		"sub":     user.ID,
		"purpose": resetTokenPurpose,
		"iat":     now.Unix(),
		"exp":     now.Add(m.resetTokenExpiry).Unix(),
		"jti":     uuid.New().String(),
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.IssueResetToken] Sign")
	}
	return signed, nil
}

// ValidateResetToken checks a recovery token and returns the user ID it was
// issued for. The token is revoked on successful validation so it cannot be
// replayed.
func (m *Manager) ValidateResetToken(rawToken string) (string, error) {
	parsed, err := jwt.NewParser(jwt.WithTimeFunc(m.nowFunc)).Parse(rawToken, m.signer.GetVerificationKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	purpose, _ := claims["purpose"].(string)
	if purpose != resetTokenPurpose {
		return "", ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	if jti == "" || m.revokedCache.IsRevoked(jti) {
		return "", ErrTokenRevoked
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}

	exp, _ := claims["exp"].(float64)
	_ = m.revokedCache.Add(jti, time.Unix(int64(exp), 0))
	return sub, nil
}

// CleanupRevokedTokens removes expired tokens from the revocation cache
func (m *Manager) CleanupRevokedTokens() {
	if m.revokedCache != nil {
		m.revokedCache.Cleanup()
	}
}

func (m *Manager) createAccessToken(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":       m.issuer,
		"sub":       user.ID,
		"aud":       m.audience,
		"email":     user.Email,
		"role":      string(user.Role),
		"superuser": user.Superuser,
		"iat":       now.Unix(),
		"exp":       now.Add(m.accessTokenExpiry).Unix(),
		"jti":       uuid.New().String(), // Unique token ID for revocation
	}
	return m.signer.Sign(claims)
}

func (m *Manager) createRefreshToken(userID string, meta SessionMeta) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "Manager.createRefreshToken rand.Read")
	}

	now := m.nowFunc()
	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		ID:        uuid.New().String(),
		Token:     tokenStr,
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(m.refreshTokenExpiry),
	}); err != nil {
		return "", errors.Wrap(err, "Manager.createRefreshToken Upsert")
	}

	return tokenStr, nil
}
