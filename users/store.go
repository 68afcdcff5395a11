package users

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
)

// ActorStore reads and writes the actor persisted under the "user" key.
type ActorStore struct {
	repo storage.Repo
}

func NewActorStore(repo storage.Repo) *ActorStore {
	return &ActorStore{repo: repo}
}

// Get returns the persisted actor, errors.ErrNotFound when none is stored,
// or errors.ErrMalformedState when the stored value cannot be decoded.
func (s *ActorStore) Get(ctx context.Context) (*Actor, error) {
	raw, found, err := s.repo.Get(ctx, storage.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("[ActorStore Get] %w", err)
	}
	if !found || raw == "" {
		return nil, errors.ErrNotFound
	}

	var actor Actor
	if err := json.Unmarshal([]byte(raw), &actor); err != nil {
		return nil, fmt.Errorf("[ActorStore Get] %w: %w", errors.ErrMalformedState, err)
	}
	if err := json.Unmarshal([]byte(raw), &actor.Profile); err != nil {
		return nil, fmt.Errorf("[ActorStore Get] %w: %w", errors.ErrMalformedState, err)
	}
	return &actor, nil
}

// Set persists the actor, merging its profile fields with the typed ones.
func (s *ActorStore) Set(ctx context.Context, actor *Actor) error {
	merged := make(map[string]any, len(actor.Profile)+4)
	for k, v := range actor.Profile {
		merged[k] = v
	}
	typed, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("[ActorStore Set] %w", err)
	}
	var typedMap map[string]any
	if err := json.Unmarshal(typed, &typedMap); err != nil {
		return fmt.Errorf("[ActorStore Set] %w", err)
	}
	for k, v := range typedMap {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("[ActorStore Set] %w", err)
	}
	return s.repo.Set(ctx, map[string]string{storage.KeyUser: string(raw)})
}

// Clear removes the persisted actor.
func (s *ActorStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, storage.KeyUser)
}
