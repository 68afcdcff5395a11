package rotatorfake

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-erp-client/token/refresh"
	"golang.org/x/oauth2"
)

var _ refresh.Rotator = (*FakeRotator)(nil)

// ErrNoResult is returned when no result has been queued.
var ErrNoResult = errors.New("no rotation result queued")

// Result is one scripted outcome of Rotate.
type Result struct {
	Token *oauth2.Token
	Err   error
}

// FakeRotator replays queued results in order and records the refresh tokens
// it was called with.
type FakeRotator struct {
	results []Result
	calls   []string
	called  chan string
	lock    sync.Mutex
}

func NewFakeRotator() *FakeRotator {
	return &FakeRotator{called: make(chan string, 64)}
}

// Succeed queues a successful rotation returning the given pair.
func (f *FakeRotator) Succeed(access, refreshToken string) *FakeRotator {
	return f.Enqueue(Result{Token: &oauth2.Token{AccessToken: access, RefreshToken: refreshToken, TokenType: "Bearer"}})
}

// Fail queues a failed rotation.
func (f *FakeRotator) Fail(err error) *FakeRotator {
	return f.Enqueue(Result{Err: err})
}

func (f *FakeRotator) Enqueue(results ...Result) *FakeRotator {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.results = append(f.results, results...)
	return f
}

func (f *FakeRotator) Rotate(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	f.lock.Lock()
	f.calls = append(f.calls, refreshToken)
	var r Result
	if len(f.results) == 0 {
		r = Result{Err: ErrNoResult}
	} else {
		r, f.results = f.results[0], f.results[1:]
	}
	f.lock.Unlock()

	select {
	case f.called <- refreshToken:
	default:
	}
	return r.Token, r.Err
}

// Calls returns the refresh tokens passed to Rotate so far.
func (f *FakeRotator) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.calls...)
}

// Called delivers the refresh token of every Rotate call.
func (f *FakeRotator) Called() <-chan string {
	return f.called
}
