package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is the single source of truth for the credential pair. All reads go
// to the backing repo so they observe the most recent completed write.
type Store struct {
	repo   storage.Repo
	logger zerolog.Logger
	lock   sync.RWMutex
}

type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(repo storage.Repo, options ...StoreOption) *Store {
	s := &Store{
		repo:   repo,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Get returns the persisted credentials. Storage failures are logged and
// reported as an empty (logged out) pair.
func (s *Store) Get(ctx context.Context) Credentials {
	s.lock.RLock()
	defer s.lock.RUnlock()

	access, _, err := s.repo.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("token store: reading access token failed, treating as logged out")
		return Credentials{}
	}
	refresh, _, err := s.repo.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("token store: reading refresh token failed, treating as logged out")
		return Credentials{}
	}
	return Credentials{AccessToken: access, RefreshToken: refresh}
}

// Set persists the access token and, when refresh is non-empty, the refresh
// token. An empty refresh leaves the stored refresh token untouched.
func (s *Store) Set(ctx context.Context, access, refresh string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values := map[string]string{storage.KeyAccessToken: access}
	if refresh != "" {
		values[storage.KeyRefreshToken] = refresh
	}
	if err := s.repo.Set(ctx, values); err != nil {
		return fmt.Errorf("[token Store.Set] %w: %w", errors.ErrStorageUnavailable, err)
	}
	return nil
}

// Clear removes both tokens. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.repo.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken); err != nil {
		return fmt.Errorf("[token Store.Clear] %w: %w", errors.ErrStorageUnavailable, err)
	}
	return nil
}
