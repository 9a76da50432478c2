package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// record is what the store keeps per request key: a reservation while the handler
// runs, then the final response.
type record struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r record) replayable() bool { return !r.InProgress && r.Code != 0 && len(r.Body) > 0 }

type replayStore struct {
	rdb *redis.Client
}

// reserve claims key for the lock TTL. It reports false when the key already exists.
func (s replayStore) reserve(ctx context.Context, key string, r record) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, errors.Wrap(err, "encode record")
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s replayStore) load(ctx context.Context, key string) (record, error) {
	var r record
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(v, &r); err != nil {
		return r, errors.Wrap(err, "decode record")
	}
	return r, nil
}

func (s replayStore) save(ctx context.Context, key string, r record, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}
