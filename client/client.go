package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-erp-client/auth"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/oauthmodel"
	"github.com/jrsteele09/go-erp-client/sessions"
	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/token/refresh"
	"github.com/jrsteele09/go-erp-client/transport"
	"github.com/jrsteele09/go-erp-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Client wires every session component once and exposes the public surface
// used by UI collaborators.
type Client struct {
	Session    *sessions.Controller
	Transports *transport.Set
	Actors     *users.ActorStore
	Selections *tenants.SelectionStore

	tokens        *token.Store
	scheduler     *refresh.Scheduler
	repo          storage.Repo
	loginEndpoint string
	logger        zerolog.Logger
}

type settings struct {
	repo      storage.Repo
	navigator sessions.Navigator
	base      http.RoundTripper
	metrics   metrics.Recorder
	logger    zerolog.Logger
}

type Option func(*settings)

// WithRepo uses repo instead of the configured storage driver.
func WithRepo(repo storage.Repo) Option {
	return func(s *settings) {
		s.repo = repo
	}
}

func WithNavigator(n sessions.Navigator) Option {
	return func(s *settings) {
		s.navigator = n
	}
}

// WithBaseTransport sets the network transport used by every request,
// including token rotation.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.base = rt
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// New builds a Client from cfg. The session is not bootstrapped; call
// Bootstrap once the host is ready.
func New(ctx context.Context, cfg config.Config, options ...Option) (*Client, error) {
	s := settings{
		base:    http.DefaultTransport,
		metrics: metrics.Nop{},
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(&s)
	}

	repo := s.repo
	if repo == nil {
		var err error
		if repo, err = OpenRepo(ctx, cfg); err != nil {
			return nil, err
		}
	}

	c, err := build(ctx, cfg, repo, s)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	return c, nil
}

func build(ctx context.Context, cfg config.Config, repo storage.Repo, s settings) (*Client, error) {
	tokens := token.NewStore(repo, token.WithLogger(s.logger))

	rotator, err := newRotator(ctx, cfg, s.base)
	if err != nil {
		return nil, err
	}
	scheduler := refresh.NewScheduler(tokens, rotator,
		refresh.WithInterval(cfg.GetRefreshInterval()),
		refresh.WithTimeout(cfg.GetRefreshTimeout()),
		refresh.WithMetrics(s.metrics),
		refresh.WithLogger(s.logger),
	)

	sessionOpts := []sessions.Option{
		sessions.WithLoginRoute(cfg.GetLoginRoute()),
		sessions.WithNavigationDelay(cfg.GetNavigationDelay()),
		sessions.WithMetrics(s.metrics),
		sessions.WithLogger(s.logger),
	}
	if s.navigator != nil {
		sessionOpts = append(sessionOpts, sessions.WithNavigator(s.navigator))
	}
	controller := sessions.NewController(tokens, scheduler, sessionOpts...)

	actors := users.NewActorStore(repo)
	selections := tenants.NewSelectionStore(repo)
	decorator, err := auth.NewDecorator(
		tokens,
		auth.NewStoredTenantContext(actors, selections, tokens),
		auth.NewRequestPolicy(cfg.GetExemptRoutes()...),
		tenants.NewResolver(users.NewRestrictedRolePolicy(cfg.GetRestrictedRoles()...)),
		auth.WithLogger(s.logger),
		auth.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, err
	}

	transports, err := transport.NewSet(cfg.GetBaseURL(), decorator, controller,
		transport.WithTimeout(cfg.GetTimeout()),
		transport.WithBaseTransport(s.base),
		transport.WithRequestLog(cfg.GetEnv() == "DEV"),
		transport.WithMetrics(s.metrics),
		transport.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		Session:       controller,
		Transports:    transports,
		Actors:        actors,
		Selections:    selections,
		tokens:        tokens,
		scheduler:     scheduler,
		repo:          repo,
		loginEndpoint: cfg.GetLoginEndpoint(),
		logger:        s.logger,
	}, nil
}

// newRotator picks the standard refresh_token grant when an OIDC issuer is
// configured and the ERP refresh endpoint otherwise.
func newRotator(ctx context.Context, cfg config.Config, base http.RoundTripper) (refresh.Rotator, error) {
	httpClient := &http.Client{Transport: base, Timeout: cfg.GetRefreshTimeout()}

	if issuer := cfg.GetOAuthIssuer(); issuer != "" {
		endpoint, err := refresh.DiscoverEndpoint(context.WithValue(ctx, oauth2.HTTPClient, httpClient), issuer)
		if err != nil {
			return nil, err
		}
		return refresh.NewOAuth2Rotator(&oauth2.Config{
			ClientID:     cfg.GetOAuthClientID(),
			ClientSecret: cfg.GetOAuthClientSecret(),
			Endpoint:     endpoint,
		}, httpClient), nil
	}

	endpoint, err := resolveEndpoint(cfg.GetBaseURL(), cfg.GetRefreshEndpoint())
	if err != nil {
		return nil, err
	}
	return refresh.NewHTTPRotator(endpoint, httpClient), nil
}

func resolveEndpoint(baseURL, endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidConfig, "[client resolveEndpoint] %q", endpoint)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/"), nil
}

// Bootstrap restores a persisted session.
func (c *Client) Bootstrap(ctx context.Context) bool {
	return c.Session.Bootstrap(ctx)
}

// Authenticate exchanges credentials at the login endpoint, persists the
// returned actor and logs in with the returned token pair.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	var resp oauthmodel.LoginResponse
	if err := c.Transports.JSON.Post(ctx, c.loginEndpoint, oauthmodel.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return fmt.Errorf("[Client Authenticate] %w", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return errors.Wrapf(errors.ErrMissingCredentials, "[Client Authenticate] login response")
	}

	if len(resp.User) > 0 && string(resp.User) != "null" {
		var actor users.Actor
		if err := json.Unmarshal(resp.User, &actor); err != nil {
			return fmt.Errorf("[Client Authenticate] %w: %w", errors.ErrMalformedState, err)
		}
		if err := json.Unmarshal(resp.User, &actor.Profile); err != nil {
			return fmt.Errorf("[Client Authenticate] %w: %w", errors.ErrMalformedState, err)
		}
		if err := c.Actors.Set(ctx, &actor); err != nil {
			return fmt.Errorf("[Client Authenticate] storing actor: %w", err)
		}
	}
	return c.Session.Login(ctx, resp.AccessToken, resp.RefreshToken)
}

func (c *Client) Login(ctx context.Context, access, refreshToken string) error {
	return c.Session.Login(ctx, access, refreshToken)
}

// Logout ends the session and forgets the actor. The division selection is
// kept for the next login.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Session.Logout(ctx)
	if clearErr := c.Actors.Clear(ctx); clearErr != nil {
		err = errors.Join(err, clearErr)
	}
	return err
}

func (c *Client) IsLoggedIn() bool {
	return c.Session.IsLoggedIn()
}

// Credentials returns the current token pair.
func (c *Client) Credentials(ctx context.Context) token.Credentials {
	return c.tokens.Get(ctx)
}

// RefreshState reports whether the background rotation is running.
func (c *Client) RefreshState() refresh.State {
	return c.scheduler.State()
}

// Close stops rotation and releases storage. Persisted credentials are kept.
func (c *Client) Close() error {
	c.scheduler.Stop()
	return c.repo.Close()
}
