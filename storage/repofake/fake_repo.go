package repofake

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-erp-client/storage"
)

var _ storage.Repo = (*FakeRepo)(nil)

// ErrInjected is returned by every operation after FailWith has been called
// without an explicit error.
var ErrInjected = errors.New("injected storage failure")

type FakeRepo struct {
	values map[string]string
	fail   error
	lock   sync.RWMutex
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		values: make(map[string]string),
	}
}

// FailWith makes every subsequent call return err. A nil err clears the failure.
func (r *FakeRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.fail = err
}

func (r *FakeRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.fail != nil {
		return "", false, r.fail
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *FakeRepo) Set(_ context.Context, values map[string]string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.fail != nil {
		return r.fail
	}
	for k, v := range values {
		r.values[k] = v
	}
	return nil
}

func (r *FakeRepo) Delete(_ context.Context, keys ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.fail != nil {
		return r.fail
	}
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func (r *FakeRepo) Close() error {
	return nil
}

// Snapshot returns a copy of the stored values.
func (r *FakeRepo) Snapshot() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
