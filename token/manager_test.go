package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubcentral/go-session-hub/token"
	fakerefreshrepo "github.com/hubcentral/go-session-hub/token/repofake"
	"github.com/hubcentral/go-session-hub/users"
	fakeuserrepo "github.com/hubcentral/go-session-hub/users/repofake"
)

type managerFixture struct {
	userRepo  *fakeuserrepo.FakeUserRepo
	tokenRepo *fakerefreshrepo.FakeRefreshTokenRepo
	manager   *token.Manager
	now       time.Time
}

func setupManagerFixture(t *testing.T, options ...token.ManagerOption) *managerFixture {
	t.Helper()

	f := &managerFixture{
		userRepo:  fakeuserrepo.NewFakeUserRepo(),
		tokenRepo: fakerefreshrepo.NewFakeRefreshTokenRepo(),
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	opts := append([]token.ManagerOption{
		token.WithIssuer("https://hub.example.com"),
		token.WithNowFunc(func() time.Time { return f.now }),
	}, options...)

	f.manager = token.New(f.tokenRepo, f.userRepo, token.NewHMACSigner("test-secret"), opts...)
	return f
}

func (f *managerFixture) createUser(t *testing.T, email string) *users.User {
	t.Helper()

	hash, err := users.HashPassword("Password1")
	require.NoError(t, err)
	user := &users.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         users.RoleUser,
		Active:       true,
	}
	require.NoError(t, f.userRepo.Upsert(user))
	return user
}

func TestIssueAndValidate(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{UserAgent: "cli", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)

	claims, err := f.manager.Validate(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.Email, claims.Email)
	require.Equal(t, users.RoleUser, claims.Role)
	require.False(t, claims.Superuser)
	require.NotEmpty(t, claims.JTI)
}

func TestValidateExpiredToken(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	f.now = f.now.Add(31 * time.Minute)
	_, err = f.manager.Validate(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestValidateGarbage(t *testing.T) {
	f := setupManagerFixture(t)

	_, err := f.manager.Validate("not-a-jwt")
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = f.manager.Validate("")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	other := token.New(f.tokenRepo, f.userRepo, token.NewHMACSigner("other-secret"),
		token.WithNowFunc(func() time.Time { return f.now }))
	pair, err := other.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	_, err = f.manager.Validate(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestRevokeAccessToken(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, f.manager.RevokeAccessToken(pair.AccessToken))

	_, err = f.manager.Validate(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrTokenRevoked)
}

func TestRotateIssuesFreshPairAndInvalidatesOld(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{UserAgent: "cli"})
	require.NoError(t, err)

	rotated, err := f.manager.Rotate(pair.RefreshToken, token.SessionMeta{UserAgent: "cli"})
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed refresh token fails.
	_, err = f.manager.Rotate(pair.RefreshToken, token.SessionMeta{})
	require.ErrorIs(t, err, token.ErrInvalidRefreshToken)

	// The rotated token works.
	_, err = f.manager.Rotate(rotated.RefreshToken, token.SessionMeta{})
	require.NoError(t, err)
}

func TestRotateExpiredRefreshToken(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	f.now = f.now.Add(8 * 24 * time.Hour)
	_, err = f.manager.Rotate(pair.RefreshToken, token.SessionMeta{})
	require.ErrorIs(t, err, token.ErrRefreshTokenExpired)
}

func TestRotateInactiveUser(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, f.userRepo.SetActive(user.Email, false))
	_, err = f.manager.Rotate(pair.RefreshToken, token.SessionMeta{})
	require.Error(t, err)
}

func TestRevokeUnknownRefreshTokenIsNoOp(t *testing.T) {
	f := setupManagerFixture(t)
	f.manager.Revoke("never-seen")
}

func TestSessionsForUserAndRevokeByID(t *testing.T) {
	f := setupManagerFixture(t)
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")

	_, err := f.manager.Issue(alice, token.SessionMeta{UserAgent: "laptop"})
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.manager.Issue(alice, token.SessionMeta{UserAgent: "phone"})
	require.NoError(t, err)
	_, err = f.manager.Issue(bob, token.SessionMeta{UserAgent: "tablet"})
	require.NoError(t, err)

	sessions, err := f.manager.SessionsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "laptop", sessions[0].UserAgent)
	require.Equal(t, "phone", sessions[1].UserAgent)

	// Bob cannot revoke Alice's session.
	require.Error(t, f.manager.RevokeSessionByID(bob.ID, sessions[0].ID))

	require.NoError(t, f.manager.RevokeSessionByID(alice.ID, sessions[0].ID))
	remaining, err := f.manager.SessionsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "phone", remaining[0].UserAgent)
}

func TestRevokeOtherSessionsKeepsCurrent(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	first, err := f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)
	_, err = f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)
	_, err = f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, f.manager.RevokeOtherSessions(user.ID, first.RefreshToken))

	sessions, err := f.manager.SessionsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	_, err = f.manager.Rotate(first.RefreshToken, token.SessionMeta{})
	require.NoError(t, err)
}

func TestResetTokenRoundTrip(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	resetToken, err := f.manager.IssueResetToken(user)
	require.NoError(t, err)

	userID, err := f.manager.ValidateResetToken(resetToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// Single use: a second validation fails.
	_, err = f.manager.ValidateResetToken(resetToken)
	require.ErrorIs(t, err, token.ErrTokenRevoked)
}

func TestResetTokenExpires(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	resetToken, err := f.manager.IssueResetToken(user)
	require.NoError(t, err)

	f.now = f.now.Add(31 * time.Minute)
	_, err = f.manager.ValidateResetToken(resetToken)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestResetTokenExpiryIsConfigurable(t *testing.T) {
	f := setupManagerFixture(t, token.WithResetTokenExpiry(5*time.Minute))
	user := f.createUser(t, "user@example.com")

	resetToken, err := f.manager.IssueResetToken(user)
	require.NoError(t, err)

	f.now = f.now.Add(6 * time.Minute)
	_, err = f.manager.ValidateResetToken(resetToken)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestAccessTokenRejectedAsResetToken(t *testing.T) {
	f := setupManagerFixture(t)
	user := f.createUser(t, "user@example.com")

	pair, err := f.manager.Issue(user, token.SessionMeta{})
	require.NoError(t, err)

	_, err = f.manager.ValidateResetToken(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}
