package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = 5 * time.Minute
	DefaultTimeout  = 10 * time.Second
)

// State of the scheduler.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// CredentialStore is the part of the token store the scheduler needs.
type CredentialStore interface {
	Get(ctx context.Context) token.Credentials
	Set(ctx context.Context, access, refresh string) error
}

// TickerFunc creates a ticker firing every d. The returned func stops it and
// must be safe to call more than once.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// handle is one Running cycle. A cycle whose handle is no longer current
// must not write credentials.
type handle struct {
	cancel     context.CancelFunc
	stopTicker func()
}

// Scheduler rotates the credential pair periodically. At most one cycle runs
// at a time. A failed rotation ends the cycle and calls the failure handler;
// it is never retried.
type Scheduler struct {
	store     CredentialStore
	rotator   Rotator
	interval  time.Duration
	timeout   time.Duration
	newTicker TickerFunc
	metrics   metrics.Recorder
	logger    zerolog.Logger

	lock      sync.Mutex
	current   *handle
	onFailure func(error)

	ticks atomic.Int64
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds a single rotation call.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithTicker(fn TickerFunc) Option {
	return func(s *Scheduler) {
		s.newTicker = fn
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func NewScheduler(store CredentialStore, rotator Rotator, options ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		rotator:   rotator,
		interval:  DefaultInterval,
		timeout:   DefaultTimeout,
		newTicker: realTicker,
		metrics:   metrics.Nop{},
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// OnFailure registers the teardown called after a failed rotation. It runs
// on the scheduler goroutine once the scheduler is already Idle.
func (s *Scheduler) OnFailure(fn func(error)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.onFailure = fn
}

// Start supersedes any running cycle and begins a new one. It stays Idle and
// returns false when no refresh token is stored.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopLocked()
	if !s.store.Get(ctx).HasRefresh() {
		s.logger.Debug().Msg("no refresh token, token rotation not started")
		return false
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ticks, stopTicker := s.newTicker(s.interval)
	h := &handle{cancel: cancel, stopTicker: stopTicker}
	s.current = h

	go s.run(runCtx, h, ticks)
	s.logger.Debug().Dur("interval", s.interval).Msg("token rotation started")
	return true
}

// Stop cancels the running cycle, if any. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.current == nil {
		return
	}
	s.current.cancel()
	s.current.stopTicker()
	s.current = nil
}

func (s *Scheduler) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.current != nil {
		return Running
	}
	return Idle
}

func (s *Scheduler) Running() bool {
	return s.State() == Running
}

// Ticks returns how many ticks have been processed since construction.
func (s *Scheduler) Ticks() int64 {
	return s.ticks.Load()
}

func (s *Scheduler) run(ctx context.Context, h *handle, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if ctx.Err() != nil {
				return
			}
			if !s.tick(ctx, h) {
				return
			}
		}
	}
}

// tick performs one rotation and reports whether the cycle continues.
func (s *Scheduler) tick(ctx context.Context, h *handle) bool {
	s.ticks.Add(1)

	creds := s.store.Get(ctx)
	if !creds.HasRefresh() {
		s.logger.Debug().Msg("refresh token gone, token rotation stopped")
		s.release(h)
		return false
	}

	rotateCtx, cancel := context.WithTimeout(ctx, s.timeout)
	tok, err := s.rotator.Rotate(rotateCtx, creds.RefreshToken)
	cancel()
	if err == nil && (tok == nil || tok.AccessToken == "" || tok.RefreshToken == "") {
		err = errors.Wrapf(errors.ErrInvalidRotationResponse, "[Scheduler tick] incomplete token pair")
	}

	if err != nil {
		if ctx.Err() != nil {
			// Stopped while rotating; the stop owns the teardown.
			return false
		}
		s.metrics.Rotation(false)
		s.logger.Warn().Err(err).Msg("token rotation failed")
		if fn, ok := s.release(h); ok && fn != nil {
			fn(err)
		}
		return false
	}

	s.lock.Lock()
	if s.current != h {
		s.lock.Unlock()
		return false
	}
	err = s.store.Set(ctx, tok.AccessToken, tok.RefreshToken)
	s.lock.Unlock()
	if err != nil {
		s.metrics.Rotation(false)
		s.logger.Warn().Err(err).Msg("storing rotated tokens failed")
		if fn, ok := s.release(h); ok && fn != nil {
			fn(err)
		}
		return false
	}

	s.metrics.Rotation(true)
	s.logger.Debug().Time("expiry", tok.Expiry).Msg("tokens rotated")
	return true
}

// release moves the scheduler to Idle if h is still the current cycle and
// returns the failure handler to call outside the lock.
func (s *Scheduler) release(h *handle) (func(error), bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.current != h {
		return nil, false
	}
	s.stopLocked()
	return s.onFailure, true
}
