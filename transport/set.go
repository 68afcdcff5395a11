package transport

import (
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-erp-client/auth"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	NameJSON = "json"
	NameForm = "form"
	NameBlob = "blob"
)

const DefaultTimeout = 30 * time.Second

// Set holds the three transports. They share one decorator and one
// invalidator, so a session-invalidating response on any of them tears the
// session down the same way.
//
// JSON and Form send "all divisions" as divisionId=all; Blob sends
// showAllDivisions=true, which the report endpoints expect.
type Set struct {
	JSON *JSONClient
	Form *FormClient
	Blob *BlobClient
}

type settings struct {
	timeout    time.Duration
	base       http.RoundTripper
	requestLog bool
	metrics    metrics.Recorder
	logger     zerolog.Logger
}

type Option func(*settings)

func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBaseTransport sets the network transport under the session layer.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.base = rt
	}
}

// WithRequestLog logs every decorated request at debug level.
func WithRequestLog(enabled bool) Option {
	return func(s *settings) {
		s.requestLog = enabled
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

func NewSet(baseURL string, decorator *auth.Decorator, invalidator auth.Invalidator, options ...Option) (*Set, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "[transport NewSet] base url %q", baseURL)
	}

	s := settings{
		timeout: DefaultTimeout,
		base:    http.DefaultTransport,
		metrics: metrics.Nop{},
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(&s)
	}
	if s.requestLog {
		s.base = &requestLog{next: s.base, logger: s.logger}
	}

	build := func(name string, enc tenants.AllEncoding) (client, error) {
		rt, err := auth.NewRoundTripper(name, decorator, invalidator,
			auth.WithBase(s.base),
			auth.WithAllEncoding(enc),
			auth.WithRoundTripperMetrics(s.metrics),
			auth.WithRoundTripperLogger(s.logger),
		)
		if err != nil {
			return client{}, err
		}
		return client{
			name:    name,
			baseURL: base,
			http:    &http.Client{Transport: rt, Timeout: s.timeout},
			logger:  s.logger,
		}, nil
	}

	jsonClient, err := build(NameJSON, tenants.EncodeDivisionIDAll)
	if err != nil {
		return nil, err
	}
	formClient, err := build(NameForm, tenants.EncodeDivisionIDAll)
	if err != nil {
		return nil, err
	}
	blobClient, err := build(NameBlob, tenants.EncodeShowAllDivisions)
	if err != nil {
		return nil, err
	}

	return &Set{
		JSON: &JSONClient{client: jsonClient},
		Form: &FormClient{client: formClient},
		Blob: &BlobClient{client: blobClient},
	}, nil
}
