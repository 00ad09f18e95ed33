package repofakes

import (
	"context"
	"sync"

	"github.com/hubcentral/go-session-hub/session/tokenrecord"
)

var _ tokenrecord.Repo = (*FakeRecordRepo)(nil)

// FakeRecordRepo is an in-memory Repo for tests.
type FakeRecordRepo struct {
	lock   sync.RWMutex
	record *tokenrecord.Record
}

func NewFakeRecordRepo() *FakeRecordRepo {
	return &FakeRecordRepo{}
}

func (f *FakeRecordRepo) Load(ctx context.Context) (*tokenrecord.Record, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.record == nil {
		return nil, tokenrecord.ErrNotFound
	}
	if f.record.Version != tokenrecord.SchemaVersion {
		return nil, tokenrecord.ErrVersionMismatch
	}
	copied := *f.record
	return &copied, nil
}

func (f *FakeRecordRepo) Save(ctx context.Context, record *tokenrecord.Record) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	record.Version = tokenrecord.SchemaVersion
	copied := *record
	f.record = &copied
	return nil
}

func (f *FakeRecordRepo) Clear(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.record = nil
	return nil
}

// Seed installs a record directly, bypassing Save's version stamping.
func (f *FakeRecordRepo) Seed(record *tokenrecord.Record) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.record = record
}
