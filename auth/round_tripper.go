package auth

import (
	"bytes"
	"io"
	"net/http"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxClassifiedBody bounds how much of a failed response body is buffered
// for classification.
const maxClassifiedBody = 1 << 20

// Invalidator is told when a response proves the session is no longer valid.
type Invalidator interface {
	OnSessionInvalidated()
}

// RoundTripper decorates every request and classifies every non-2xx
// response. The response is always returned to the caller unchanged; the
// invalidator is called before RoundTrip returns.
type RoundTripper struct {
	name        string
	base        http.RoundTripper
	decorator   *Decorator
	encoding    tenants.AllEncoding
	invalidator Invalidator
	metrics     metrics.Recorder
	logger      zerolog.Logger
}

var _ http.RoundTripper = (*RoundTripper)(nil)

type RoundTripperOption func(*RoundTripper)

// WithBase sets the underlying transport. Defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) RoundTripperOption {
	return func(rt *RoundTripper) {
		rt.base = base
	}
}

// WithAllEncoding sets how an "all divisions" injection is written.
func WithAllEncoding(enc tenants.AllEncoding) RoundTripperOption {
	return func(rt *RoundTripper) {
		rt.encoding = enc
	}
}

func WithRoundTripperMetrics(m metrics.Recorder) RoundTripperOption {
	return func(rt *RoundTripper) {
		rt.metrics = m
	}
}

func WithRoundTripperLogger(logger zerolog.Logger) RoundTripperOption {
	return func(rt *RoundTripper) {
		rt.logger = logger
	}
}

// NewRoundTripper builds the transport for one named client. name labels
// logs and metrics ("json", "form", "blob").
func NewRoundTripper(name string, decorator *Decorator, invalidator Invalidator, options ...RoundTripperOption) (*RoundTripper, error) {
	if decorator == nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "[NewRoundTripper] decorator is required")
	}
	if invalidator == nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "[NewRoundTripper] invalidator is required")
	}

	rt := &RoundTripper{
		name:        name,
		base:        http.DefaultTransport,
		decorator:   decorator,
		encoding:    tenants.EncodeDivisionIDAll,
		invalidator: invalidator,
		metrics:     metrics.Nop{},
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(rt)
	}
	return rt, nil
}

// Name returns the transport label.
func (rt *RoundTripper) Name() string {
	return rt.name
}

func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	rt.decorator.Decorate(out, rt.encoding, rt.name)

	resp, err := rt.base.RoundTrip(out)
	if err != nil {
		// No response: transient, never session invalidating.
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, err := peekBody(resp)
	if err != nil {
		rt.logger.Debug().Err(err).Str("transport", rt.name).Msg("could not buffer error body")
	}

	invalidating := IsSessionInvalidating(NewResponse(resp.StatusCode, body))
	rt.metrics.ResponseClassified(rt.name, invalidating)
	if invalidating {
		rt.logger.Info().
			Str("transport", rt.name).
			Int("status", resp.StatusCode).
			Str("path", out.URL.Path).
			Msg("session invalidated by response")
		rt.invalidator.OnSessionInvalidated()
	}
	return resp, nil
}

// peekBody reads up to maxClassifiedBody bytes and puts them back in front of
// the remaining body so the caller still sees the full payload.
func peekBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, nil
	}
	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifiedBody))
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), resp.Body), resp.Body}
	return buf, err
}
