package tokenrecord

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileRepo persists the record as a JSON file, the single-instance analogue
// of browser local storage.
type FileRepo struct {
	path string
	lock sync.Mutex
}

func NewFileRepo(path string) *FileRepo {
	return &FileRepo{path: path}
}

var _ Repo = (*FileRepo)(nil)

func (r *FileRepo) Load(ctx context.Context) (*Record, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileRepo.Load] ReadFile")
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "[FileRepo.Load] Unmarshal")
	}
	if record.Version != SchemaVersion {
		return nil, ErrVersionMismatch
	}
	return &record, nil
}

func (r *FileRepo) Save(ctx context.Context, record *Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	record.Version = SchemaVersion
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[FileRepo.Save] Marshal")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] MkdirAll")
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] WriteFile")
	}
	return nil
}

func (r *FileRepo) Clear(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileRepo.Clear] Remove")
	}
	return nil
}
