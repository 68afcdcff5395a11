package redisrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Repo = (*Repo)(nil)

// Repo stores session values as plain Redis string keys under a prefix, so
// several terminals can share one logged-in session.
type Repo struct {
	rdb    redis.UniversalClient
	prefix string
}

func New(rdb redis.UniversalClient, prefix string) *Repo {
	return &Repo{rdb: rdb, prefix: prefix}
}

func (r *Repo) key(k string) string {
	return r.prefix + k
}

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[redisrepo Get] %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes all values in one MULTI/EXEC so a credential pair is never
// observed half-written.
func (r *Repo) Set(ctx context.Context, values map[string]string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[redisrepo Set] %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, r.key(k))
	}
	if err := r.rdb.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("[redisrepo Delete] %w", err)
	}
	return nil
}

func (r *Repo) Close() error {
	return r.rdb.Close()
}
