package tokenrecord

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRecordKey = "sessionhub:token-record"

// RedisRepo stores the record in Redis so every app instance sees the same
// copy. This is the shared-storage role the browser apps filled with a
// common local-storage key, now behind the versioned Repo contract.
type RedisRepo struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type RedisOption func(*RedisRepo)

// WithKey overrides the record key, letting tests and multi-user deployments
// partition records.
func WithKey(key string) RedisOption {
	return func(r *RedisRepo) {
		r.key = key
	}
}

// WithTTL expires the record after the given duration. Zero means no expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisRepo) {
		r.ttl = ttl
	}
}

func NewRedisRepo(client *redis.Client, options ...RedisOption) *RedisRepo {
	repo := &RedisRepo{
		client: client,
		key:    defaultRecordKey,
	}
	for _, opt := range options {
		opt(repo)
	}
	return repo
}

var _ Repo = (*RedisRepo)(nil)

func (r *RedisRepo) Load(ctx context.Context) (*Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Load] Get")
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Load] Unmarshal")
	}
	if record.Version != SchemaVersion {
		return nil, ErrVersionMismatch
	}
	return &record, nil
}

func (r *RedisRepo) Save(ctx context.Context, record *Record) error {
	record.Version = SchemaVersion
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Save] Marshal")
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Save] Set")
	}
	return nil
}

func (r *RedisRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Clear] Del")
	}
	return nil
}
