package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// CredentialSource yields the current credential pair.
type CredentialSource interface {
	Get(ctx context.Context) token.Credentials
}

// TenantContext yields the actor and the division selection used to scope
// requests. Selection returns nil when nothing is selected.
type TenantContext interface {
	Actor(ctx context.Context) (*users.Actor, error)
	Selection(ctx context.Context) (*tenants.Selection, error)
}

// Decorator attaches the bearer credential and tenant scoping to outgoing
// requests. One Decorator is shared by every transport.
type Decorator struct {
	credentials CredentialSource
	tenant      TenantContext
	policy      RequestPolicy
	resolver    tenants.Resolver
	metrics     metrics.Recorder
	logger      zerolog.Logger
}

type DecoratorOption func(*Decorator)

func WithLogger(logger zerolog.Logger) DecoratorOption {
	return func(d *Decorator) {
		d.logger = logger
	}
}

func WithMetrics(m metrics.Recorder) DecoratorOption {
	return func(d *Decorator) {
		d.metrics = m
	}
}

func NewDecorator(
	credentials CredentialSource,
	tenant TenantContext,
	policy RequestPolicy,
	resolver tenants.Resolver,
	options ...DecoratorOption,
) (*Decorator, error) {
	if credentials == nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "[NewDecorator] credential source is required")
	}
	if tenant == nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "[NewDecorator] tenant context is required")
	}

	d := &Decorator{
		credentials: credentials,
		tenant:      tenant,
		policy:      policy,
		resolver:    resolver,
		metrics:     metrics.Nop{},
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Decorate mutates req in place: it sets the Authorization header when an
// access token is present and, unless the route is exempt or the caller
// already scoped the request, merges the tenant parameters into the query.
// It returns the injection applied. transport only labels metrics.
func (d *Decorator) Decorate(req *http.Request, enc tenants.AllEncoding, transport string) tenants.Injection {
	ctx := req.Context()

	if tok := d.credentials.Get(ctx).OAuth2(); tok != nil {
		tok.SetAuthHeader(req)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	if d.policy.IsExempt(req.URL.String()) {
		d.metrics.TenantInjected(transport, "exempt")
		return tenants.None
	}

	query := req.URL.Query()
	if query.Has(tenants.ParamDivisionID) || query.Has(tenants.ParamShowAllDivisions) {
		d.metrics.TenantInjected(transport, "caller")
		return tenants.None
	}

	injection, err := d.resolve(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", req.URL.Path).Msg("tenant context unavailable, sending request unscoped")
		d.metrics.TenantInjected(transport, "error")
		return tenants.None
	}

	if injection.Kind == tenants.InjectNone {
		d.metrics.TenantInjected(transport, injection.Kind.String())
		return injection
	}
	for k, vs := range injection.Params(enc) {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	req.URL.RawQuery = query.Encode()
	d.metrics.TenantInjected(transport, injection.Kind.String())
	return injection
}

func (d *Decorator) resolve(ctx context.Context) (tenants.Injection, error) {
	selection, err := d.tenant.Selection(ctx)
	if err != nil {
		return tenants.None, err
	}
	if selection == nil {
		return tenants.None, nil
	}

	actor, err := d.tenant.Actor(ctx)
	if err != nil {
		return tenants.None, err
	}
	return d.resolver.Resolve(*actor, selection), nil
}
