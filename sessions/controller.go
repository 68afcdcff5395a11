package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-erp-client/auth"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLoginRoute      = "/login"
	DefaultNavigationDelay = 1500 * time.Millisecond
)

// Navigator is the host's router.
type Navigator interface {
	CurrentLocation() string
	Navigate(route string)
}

// TokenStore is the credential store the controller owns.
type TokenStore interface {
	Get(ctx context.Context) token.Credentials
	Set(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// RefreshScheduler is the background rotation cycle.
type RefreshScheduler interface {
	Start(ctx context.Context) bool
	Stop()
	Running() bool
	OnFailure(fn func(error))
}

// AfterFunc runs f once after d and returns a func cancelling it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Controller owns the logged-in flag and orchestrates login, logout and
// teardown after session invalidation. The refresh cycle is always stopped
// before credentials are cleared.
type Controller struct {
	tokens          TokenStore
	scheduler       RefreshScheduler
	navigator       Navigator
	loginRoute      string
	navigationDelay time.Duration
	navigateOnFail  bool
	afterFunc       AfterFunc
	metrics         metrics.Recorder
	logger          zerolog.Logger

	lock        sync.Mutex
	loggedIn    bool
	navigation  uint64
	cancelNav   func() bool
	subscribers map[string]func(bool)
	delivered   bool
	delivering  bool
}

var _ auth.Invalidator = (*Controller)(nil)

type Option func(*Controller)

func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		c.navigator = n
	}
}

func WithLoginRoute(route string) Option {
	return func(c *Controller) {
		if route != "" {
			c.loginRoute = route
		}
	}
}

// WithNavigationDelay sets the grace period before navigating to the login
// route after an invalidation.
func WithNavigationDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.navigationDelay = d
		}
	}
}

// WithNavigateOnRefreshFailure makes a failed rotation navigate to the login
// route like an invalidating response does. Off by default.
func WithNavigateOnRefreshFailure(enabled bool) Option {
	return func(c *Controller) {
		c.navigateOnFail = enabled
	}
}

func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		c.afterFunc = fn
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func NewController(tokens TokenStore, scheduler RefreshScheduler, options ...Option) *Controller {
	c := &Controller{
		tokens:          tokens,
		scheduler:       scheduler,
		loginRoute:      DefaultLoginRoute,
		navigationDelay: DefaultNavigationDelay,
		afterFunc:       timeAfterFunc,
		metrics:         metrics.Nop{},
		logger:          log.Logger,
		subscribers:     make(map[string]func(bool)),
	}
	for _, opt := range options {
		opt(c)
	}
	scheduler.OnFailure(c.onRefreshFailure)
	return c
}

// Bootstrap hydrates the logged-in flag from persisted credentials and
// starts rotation when a refresh token is present. It returns the flag.
func (c *Controller) Bootstrap(ctx context.Context) bool {
	c.lock.Lock()
	creds := c.tokens.Get(ctx)
	c.loggedIn = creds.HasAccess()

	c.scheduler.Stop()
	if creds.HasAccess() && creds.HasRefresh() {
		c.scheduler.Start(ctx)
	}
	loggedIn := c.loggedIn
	c.lock.Unlock()

	c.logger.Debug().Bool("loggedIn", loggedIn).Bool("refresh", creds.HasRefresh()).Msg("session bootstrapped")
	c.notify()
	return loggedIn
}

// Login persists the credential pair and (re)starts rotation. Both tokens
// are required.
func (c *Controller) Login(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.Wrapf(errors.ErrMissingCredentials, "[Controller Login]")
	}

	c.lock.Lock()
	c.scheduler.Stop()
	if err := c.tokens.Set(ctx, access, refresh); err != nil {
		// The previous session, if any, has lost its rotation cycle.
		wasLoggedIn := c.loggedIn
		if clearErr := c.teardownLocked(ctx); clearErr != nil {
			c.logger.Warn().Err(clearErr).Msg("clearing credentials after failed login failed")
		}
		c.lock.Unlock()

		if wasLoggedIn {
			c.metrics.Logout(metrics.ReasonLoginFailed)
			c.notify()
		}
		return errors.Wrapf(err, "[Controller Login] persisting credentials")
	}
	c.loggedIn = true
	c.cancelNavigationLocked()
	c.scheduler.Start(ctx)
	c.lock.Unlock()

	c.metrics.Login()
	c.logger.Info().Msg("logged in")
	c.notify()
	return nil
}

// Logout stops rotation and clears credentials. Idempotent.
func (c *Controller) Logout(ctx context.Context) error {
	c.lock.Lock()
	wasLoggedIn := c.loggedIn
	err := c.teardownLocked(ctx)
	c.lock.Unlock()

	if wasLoggedIn {
		c.metrics.Logout(metrics.ReasonUser)
		c.logger.Info().Msg("logged out")
		c.notify()
	}
	return err
}

// OnSessionInvalidated tears the session down and, unless the navigator is
// already on the login route, navigates there after the navigation delay. It
// does nothing when already logged out, so late responses from requests sent
// before a logout have no effect.
func (c *Controller) OnSessionInvalidated() {
	ctx := context.Background()

	c.lock.Lock()
	if !c.loggedIn {
		c.lock.Unlock()
		return
	}
	if err := c.teardownLocked(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("clearing credentials after invalidation failed")
	}
	c.scheduleNavigationLocked()
	c.lock.Unlock()

	c.metrics.Logout(metrics.ReasonInvalidated)
	c.logger.Info().Msg("session invalidated")
	c.notify()
}

func (c *Controller) onRefreshFailure(err error) {
	ctx := context.Background()

	c.lock.Lock()
	// A running cycle means a newer login superseded the one that failed.
	if !c.loggedIn || c.scheduler.Running() {
		c.lock.Unlock()
		return
	}
	if clearErr := c.teardownLocked(ctx); clearErr != nil {
		c.logger.Warn().Err(clearErr).Msg("clearing credentials after refresh failure failed")
	}
	if c.navigateOnFail {
		c.scheduleNavigationLocked()
	}
	c.lock.Unlock()

	c.metrics.Logout(metrics.ReasonRefreshFailed)
	c.logger.Info().Err(err).Msg("session ended after token rotation failure")
	c.notify()
}

func (c *Controller) IsLoggedIn() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.loggedIn
}

// Subscribe registers fn for logged-in flag transitions. The returned func
// removes the subscription.
func (c *Controller) Subscribe(fn func(loggedIn bool)) (unsubscribe func()) {
	id := uuid.NewString()
	c.lock.Lock()
	c.subscribers[id] = fn
	c.lock.Unlock()

	return func() {
		c.lock.Lock()
		delete(c.subscribers, id)
		c.lock.Unlock()
	}
}

// notify delivers the current logged-in flag to subscribers if it differs
// from the last delivered value. Deliveries are serial and run outside the
// lock; a change made while subscribers run is picked up by the loop.
func (c *Controller) notify() {
	c.lock.Lock()
	if c.delivering {
		c.lock.Unlock()
		return
	}
	c.delivering = true
	for c.delivered != c.loggedIn {
		loggedIn := c.loggedIn
		c.delivered = loggedIn
		subs := make([]func(bool), 0, len(c.subscribers))
		for _, fn := range c.subscribers {
			subs = append(subs, fn)
		}
		c.lock.Unlock()

		for _, fn := range subs {
			fn(loggedIn)
		}
		c.lock.Lock()
	}
	c.delivering = false
	c.lock.Unlock()
}

func (c *Controller) teardownLocked(ctx context.Context) error {
	c.scheduler.Stop()
	c.loggedIn = false
	if err := c.tokens.Clear(ctx); err != nil {
		return errors.Wrapf(err, "[Controller teardown] clearing credentials")
	}
	return nil
}

func (c *Controller) scheduleNavigationLocked() {
	if c.navigator == nil || c.navigator.CurrentLocation() == c.loginRoute {
		return
	}
	c.cancelNavigationLocked()

	c.navigation++
	id := c.navigation
	c.cancelNav = c.afterFunc(c.navigationDelay, func() {
		c.lock.Lock()
		if id != c.navigation || c.loggedIn {
			c.lock.Unlock()
			return
		}
		c.cancelNav = nil
		c.lock.Unlock()

		if c.navigator.CurrentLocation() != c.loginRoute {
			c.navigator.Navigate(c.loginRoute)
		}
	})
}

func (c *Controller) cancelNavigationLocked() {
	c.navigation++
	if c.cancelNav != nil {
		c.cancelNav()
		c.cancelNav = nil
	}
}
