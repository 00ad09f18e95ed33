// Package transport is the single shared request pipeline every app call
// goes through: it attaches the bearer token on the way out and detects
// authentication expiry on the way back. Expiry detection lives here and
// only here; a request path that bypasses this transport would make 401
// handling inconsistent across the app.
package transport

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hubcentral/go-session-hub/notify"
	"github.com/hubcentral/go-session-hub/session/tokenrecord"
)

// TokenSource yields the current access token, or "" when none is held.
// *session.Store satisfies this.
type TokenSource interface {
	Token() string
}

// ExpiryHandler is told when a request came back 401. *session.Store's
// Expire satisfies this; it guarantees the teardown fires at most once even
// when several in-flight requests fail together.
type ExpiryHandler interface {
	Expire(ctx context.Context, reason string)
}

// Transport decorates an http.RoundTripper with bearer injection and
// 401/403 interception.
type Transport struct {
	base     http.RoundTripper
	source   TokenSource
	expiry   ExpiryHandler
	fallback tokenrecord.Repo
	notifier notify.Notifier
	log      zerolog.Logger
}

type Option func(*Transport)

// WithBase sets the wrapped RoundTripper; defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithRecordFallback reads the persisted token record when the in-memory
// source holds no token yet. This covers the boot window before the store
// has restored itself.
func WithRecordFallback(repo tokenrecord.Repo) Option {
	return func(t *Transport) {
		t.fallback = repo
	}
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(t *Transport) {
		t.notifier = notifier
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = log
	}
}

func New(source TokenSource, expiry ExpiryHandler, options ...Option) *Transport {
	t := &Transport{
		base:   http.DefaultTransport,
		source: source,
		expiry: expiry,
		log:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(t)
	}
	if t.notifier == nil {
		t.notifier = notify.NewLogNotifier(t.log)
	}
	return t
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.token(req.Context()); token != "" {
		// Clone before mutating; RoundTrippers must not modify the
		// caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// Uniformly treated as session expiry. The handler is
		// single-fire, so overlapping failures redirect once.
		t.expiry.Expire(req.Context(), "request rejected with 401")
	case http.StatusForbidden:
		// An authorization failure, not an authentication one: the
		// session survives, the user is told.
		t.notifier.Negative("You do not have permission for this action.")
	}
	return resp, nil
}

func (t *Transport) token(ctx context.Context) string {
	if token := t.source.Token(); token != "" {
		return token
	}
	if t.fallback == nil {
		return ""
	}
	record, err := t.fallback.Load(ctx)
	if err != nil {
		return ""
	}
	return record.AccessToken
}
