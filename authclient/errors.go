package authclient

import "github.com/pkg/errors"

// Error kinds surfaced by the client. Callers branch on these instead of
// inferring intent from bare status codes: a rejected credential, a rejected
// bearer token, and a permission failure are different conditions with
// different recovery paths.
var (
	// ErrBadCredentials: the login exchange itself rejected the
	// username/password pair.
	ErrBadCredentials = errors.New("invalid credentials")

	// ErrMFARequired: credentials were accepted but the account requires a
	// one-time code to complete the exchange.
	ErrMFARequired = errors.New("mfa code required")

	// ErrUnauthorized: a bearer-authenticated request was rejected; the
	// token is expired, revoked, or malformed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: the token is valid but the principal lacks permission.
	// This must never tear down a session.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound = errors.New("not found")
)
