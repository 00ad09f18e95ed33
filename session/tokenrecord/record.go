// Package tokenrecord is the durable copy of a session that survives app
// reloads. Multiple independently-running apps read and write the same
// record, so the contract is versioned: a record whose schema version does
// not match is treated as absent rather than half-parsed.
package tokenrecord

import (
	"context"

	"github.com/pkg/errors"
)

// SchemaVersion is stamped into every saved record.
const SchemaVersion = 1

var (
	ErrNotFound        = errors.New("token record not found")
	ErrVersionMismatch = errors.New("token record schema version mismatch")
)

// Impersonation marks that the record's access token belongs to an
// impersonated user and stashes the administrator's original token.
type Impersonation struct {
	OriginalToken string `json:"original_token"`
	Active        bool   `json:"active"`
}

// Record holds the persisted token pair.
type Record struct {
	Version       int            `json:"version"`
	AccessToken   string         `json:"access_token"`
	RefreshToken  string         `json:"refresh_token,omitempty"`
	Impersonation *Impersonation `json:"impersonation,omitempty"`
}

// Repo is the versioned contract every app uses to reach the shared record.
type Repo interface {
	// Load returns the current record, ErrNotFound when none exists, or
	// ErrVersionMismatch when a record exists but from another schema.
	Load(ctx context.Context) (*Record, error)

	// Save persists the record, stamping the current schema version.
	Save(ctx context.Context, record *Record) error

	// Clear removes the record. Clearing an absent record is not an error.
	Clear(ctx context.Context) error
}
