package guard_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hubcentral/go-session-hub/authclient"
	"github.com/hubcentral/go-session-hub/guard"
	"github.com/hubcentral/go-session-hub/nav/navfakes"
	"github.com/hubcentral/go-session-hub/session"
	"github.com/hubcentral/go-session-hub/session/sessionfakes"
	"github.com/hubcentral/go-session-hub/session/tokenrecord"
	"github.com/hubcentral/go-session-hub/session/tokenrecord/repofakes"
)

const (
	guardLoginURL    = "https://auth.example.com/login"
	guardLandingPath = "/home"
)

type guardFixture struct {
	api    *sessionfakes.FakeAuthAPI
	record *repofakes.FakeRecordRepo
	store  *session.Store
	guard  *guard.Guard
}

func setupGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	f := &guardFixture{
		api:    sessionfakes.NewFakeAuthAPI(),
		record: repofakes.NewFakeRecordRepo(),
	}

	store, err := session.New(f.api, f.record, navfakes.NewFakeNavigator("https://app.example.com/"), session.Config{
		LoginURL:    guardLoginURL,
		LandingPath: guardLandingPath,
	})
	require.NoError(t, err)
	f.store = store

	g, err := guard.New(store, guardLoginURL, guardLandingPath)
	require.NoError(t, err)
	f.guard = g
	return f
}

func (f *guardFixture) authenticate(t *testing.T) {
	t.Helper()
	f.api.LoginFn = func(email, password string) (*authclient.TokenPair, error) {
		return &authclient.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
	}
	f.api.CurrentUserFn = func(accessToken string) (*authclient.Profile, error) {
		return &authclient.Profile{ID: "u1"}, nil
	}
	require.True(t, f.store.Login(context.Background(), session.Credentials{Email: "e", Password: "p"}))
}

func TestPublicRouteAllowed(t *testing.T) {
	f := setupGuardFixture(t)

	result := f.guard.Evaluate(context.Background(), guard.Route{FullPath: "/about"})

	require.Equal(t, guard.Allow, result.Action)
}

func TestProtectedRouteRedirectsAnonymousToLogin(t *testing.T) {
	f := setupGuardFixture(t)

	result := f.guard.Evaluate(context.Background(), guard.Route{
		FullPath:     "/reports?range=7d",
		RequiresAuth: true,
	})

	require.Equal(t, guard.RedirectLogin, result.Action)
	require.Equal(t, guardLoginURL+"?redirect=%2Freports%3Frange%3D7d", result.Target)
}

func TestProtectedRouteAllowedWhenAuthenticated(t *testing.T) {
	f := setupGuardFixture(t)
	f.authenticate(t)

	result := f.guard.Evaluate(context.Background(), guard.Route{
		FullPath:     "/reports",
		RequiresAuth: true,
	})

	require.Equal(t, guard.Allow, result.Action)
}

func TestTokenWithoutProfileSuspendsOnFetch(t *testing.T) {
	f := setupGuardFixture(t)
	f.record.Seed(&tokenrecord.Record{Version: tokenrecord.SchemaVersion, AccessToken: "persisted"})

	// The restore-time fetch fails transiently, leaving a token with no
	// profile. The guard must resolve that before deciding.
	fetchOK := false
	f.api.CurrentUserFn = func(accessToken string) (*authclient.Profile, error) {
		if !fetchOK {
			return nil, errors.New("network down")
		}
		return &authclient.Profile{ID: "u1"}, nil
	}
	_ = f.store.Restore(context.Background())
	require.NotEmpty(t, f.store.Token())
	require.Nil(t, f.store.Profile())

	fetchOK = true
	before := f.api.CurrentUserCalls
	result := f.guard.Evaluate(context.Background(), guard.Route{
		FullPath:     "/reports",
		RequiresAuth: true,
	})

	require.Equal(t, guard.Allow, result.Action)
	require.Equal(t, before+1, f.api.CurrentUserCalls)
	require.False(t, f.guard.Evaluating())
}

func TestGuardSkipsFetchWhenProfilePresent(t *testing.T) {
	f := setupGuardFixture(t)
	f.authenticate(t)

	before := f.api.CurrentUserCalls
	result := f.guard.Evaluate(context.Background(), guard.Route{FullPath: "/x", RequiresAuth: true})

	require.Equal(t, guard.Allow, result.Action)
	require.Equal(t, before, f.api.CurrentUserCalls)
}

func TestUnauthorizedFetchDuringEvaluationRedirects(t *testing.T) {
	f := setupGuardFixture(t)
	f.record.Seed(&tokenrecord.Record{Version: tokenrecord.SchemaVersion, AccessToken: "stale"})
	f.api.CurrentUserFn = func(accessToken string) (*authclient.Profile, error) {
		return nil, authclient.ErrUnauthorized
	}
	// Restore fails its fetch and expires the session.
	_ = f.store.Restore(context.Background())

	result := f.guard.Evaluate(context.Background(), guard.Route{
		FullPath:     "/reports",
		RequiresAuth: true,
	})

	require.Equal(t, guard.RedirectLogin, result.Action)
}

func TestLoginOnlyRouteBouncesAuthenticatedUser(t *testing.T) {
	f := setupGuardFixture(t)
	f.authenticate(t)

	result := f.guard.Evaluate(context.Background(), guard.Route{
		FullPath:  "/login",
		LoginOnly: true,
	})

	require.Equal(t, guard.RedirectLanding, result.Action)
	require.Equal(t, guardLandingPath, result.Target)
}

func TestLoginOnlyRouteAllowedForAnonymous(t *testing.T) {
	f := setupGuardFixture(t)

	result := f.guard.Evaluate(context.Background(), guard.Route{
		FullPath:  "/login",
		LoginOnly: true,
	})

	require.Equal(t, guard.Allow, result.Action)
}
