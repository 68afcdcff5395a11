package boltrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-erp-client/storage"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Repo = (*Repo)(nil)

var bucketName = []byte("session")

// Repo persists session values in a single bbolt bucket so they survive
// process restarts.
type Repo struct {
	db *bolt.DB
}

// Open creates (or opens) the bbolt file at path, creating parent directories
// with user-only permissions.
func Open(path string) (*Repo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[boltrepo Open] create directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("[boltrepo Open] open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[boltrepo Open] create bucket: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("[boltrepo Get] %s: %w", key, err)
	}
	return value, found, nil
}

func (r *Repo) Set(_ context.Context, values map[string]string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for k, v := range values {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[boltrepo Set] %w", err)
	}
	return nil
}

func (r *Repo) Delete(_ context.Context, keys ...string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[boltrepo Delete] %w", err)
	}
	return nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}
