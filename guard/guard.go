// Package guard decides, per navigation attempt, whether a route may render
// or the user must be bounced: unauthenticated visitors of protected routes
// go to the central login with a redirect parameter pointing back, and
// already-authenticated visitors of the login page go to the landing route.
package guard

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/hubcentral/go-session-hub/session"
)

// Action is the guard's verdict for one navigation attempt.
type Action int

const (
	// Allow renders the target route.
	Allow Action = iota

	// RedirectLogin aborts in-app navigation for a full-page redirect to
	// the central login URL (Result.Target, with the redirect parameter
	// already attached).
	RedirectLogin

	// RedirectLanding bounces an authenticated user away from a public
	// login-only route to the app's landing path, in-app.
	RedirectLanding
)

// Route is the navigation target's metadata.
type Route struct {
	// FullPath is the complete in-app path including query, used to
	// build the return target.
	FullPath string

	// RequiresAuth marks a protected route.
	RequiresAuth bool

	// LoginOnly marks a route that only makes sense for anonymous
	// visitors (the login page itself, password recovery).
	LoginOnly bool
}

// Result carries the verdict and, for redirects, the destination.
type Result struct {
	Action Action
	Target string
}

const (
	stateResolved int32 = iota
	stateEvaluating
)

// Guard evaluates navigation attempts against the session store.
type Guard struct {
	store       *session.Store
	loginURL    string
	landingPath string
	state       atomic.Int32
}

func New(store *session.Store, loginURL, landingPath string) (*Guard, error) {
	if store == nil {
		return nil, errors.New("[guard.New] store is required")
	}
	if loginURL == "" {
		return nil, errors.New("[guard.New] loginURL is required")
	}
	if landingPath == "" {
		return nil, errors.New("[guard.New] landingPath is required")
	}
	return &Guard{
		store:       store,
		loginURL:    loginURL,
		landingPath: landingPath,
	}, nil
}

// Evaluating reports whether a navigation attempt is currently suspended on
// a profile fetch.
func (g *Guard) Evaluating() bool {
	return g.state.Load() == stateEvaluating
}

// Evaluate runs the guard for one navigation attempt. When the session
// holds a token but no profile yet (fresh reload), the evaluation suspends
// on the profile fetch before deciding. This is the only suspension point
// in the navigation pipeline.
func (g *Guard) Evaluate(ctx context.Context, route Route) Result {
	g.state.Store(stateEvaluating)
	defer g.state.Store(stateResolved)

	if g.store.Token() != "" && g.store.Profile() == nil {
		// Suspend until the session resolves one way or the other.
		// A transient failure leaves the token in place and the
		// session unresolved; the protected-route check below then
		// falls through to the login redirect rather than rendering
		// with unknown auth state.
		_ = g.store.FetchUser(ctx)
	}

	if route.RequiresAuth && !g.store.IsAuthenticated() {
		return Result{Action: RedirectLogin, Target: g.loginRedirect(route.FullPath)}
	}
	if route.LoginOnly && g.store.IsAuthenticated() {
		return Result{Action: RedirectLanding, Target: g.landingPath}
	}
	return Result{Action: Allow}
}

// loginRedirect builds the central login URL carrying the intended path
// (including its query) as the redirect parameter.
func (g *Guard) loginRedirect(fullPath string) string {
	loginURL, err := url.Parse(g.loginURL)
	if err != nil {
		return g.loginURL
	}
	query := loginURL.Query()
	query.Set("redirect", fullPath)
	loginURL.RawQuery = query.Encode()
	return loginURL.String()
}
