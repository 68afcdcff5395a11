package tenants

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
)

// SelectionStore reads and writes the division selection persisted under
// the "selectedDivision" key.
type SelectionStore struct {
	repo storage.Repo
}

func NewSelectionStore(repo storage.Repo) *SelectionStore {
	return &SelectionStore{repo: repo}
}

// Get returns the persisted selection, nil when none is stored, or an error
// wrapping errors.ErrMalformedState when it cannot be decoded.
func (s *SelectionStore) Get(ctx context.Context) (*Selection, error) {
	raw, found, err := s.repo.Get(ctx, storage.KeySelectedDivision)
	if err != nil {
		return nil, fmt.Errorf("[SelectionStore Get] %w", err)
	}
	if !found || raw == "" || raw == "null" {
		return nil, nil
	}

	var sel Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("[SelectionStore Get] %w: %w", errors.ErrMalformedState, err)
	}
	return &sel, nil
}

func (s *SelectionStore) Set(ctx context.Context, sel Selection) error {
	raw, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("[SelectionStore Set] %w", err)
	}
	return s.repo.Set(ctx, map[string]string{storage.KeySelectedDivision: string(raw)})
}

func (s *SelectionStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, storage.KeySelectedDivision)
}
