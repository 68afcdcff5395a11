package client

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/jrsteele09/go-erp-client/storage/boltrepo"
	"github.com/jrsteele09/go-erp-client/storage/redisrepo"
	"github.com/jrsteele09/go-erp-client/storage/repofake"
	"github.com/jrsteele09/go-erp-client/storage/sealed"
	"github.com/redis/go-redis/v9"
)

// OpenRepo opens the storage driver selected by cfg and seals it when an
// encryption key is configured.
func OpenRepo(ctx context.Context, cfg config.StorageConfig) (storage.Repo, error) {
	var (
		repo storage.Repo
		err  error
	)
	switch cfg.GetStorageDriver() {
	case config.StorageDriverMemory:
		repo = repofake.NewFakeRepo()
	case config.StorageDriverBolt, "":
		repo, err = boltrepo.Open(cfg.GetStoragePath())
	case config.StorageDriverRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.GetRedisAddr()},
			DB:    cfg.GetRedisDB(),
		})
		repo = redisrepo.New(rdb, cfg.GetStorageKeyPrefix())
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "[client OpenRepo] unknown storage driver %q", cfg.GetStorageDriver())
	}
	if err != nil {
		return nil, fmt.Errorf("[client OpenRepo] %w", err)
	}

	if key := cfg.GetEncryptionKey(); key != "" {
		sealedRepo, err := sealed.New(ctx, repo, key)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("[client OpenRepo] %w", err)
		}
		repo = sealedRepo
	}
	return repo, nil
}
