package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/storacha/go-candid/transport"
)

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 64 << 10

// Option is an option configuring a HTTP channel.
type Option func(cfg *chanConfig)

type chanConfig struct {
	client   *http.Client
	method   string
	statuses []int
	headers  http.Header
}

// WithClient configures the HTTP client the channel should use to make
// requests.
func WithClient(c *http.Client) Option {
	return func(cfg *chanConfig) {
		cfg.client = c
	}
}

// WithMethod configures the HTTP method the channel should use when making
// requests.
func WithMethod(method string) Option {
	return func(cfg *chanConfig) {
		cfg.method = method
	}
}

// WithSuccessStatusCode configures the HTTP status code(s) that will indicate a
// successful request.
func WithSuccessStatusCode(codes ...int) Option {
	return func(cfg *chanConfig) {
		cfg.statuses = codes
	}
}

// WithHeaders adds headers to every request, under the request's own.
func WithHeaders(headers http.Header) Option {
	return func(cfg *chanConfig) {
		cfg.headers = headers
	}
}

type channel struct {
	url      *url.URL
	client   *http.Client
	method   string
	statuses []int
	headers  http.Header
}

func (c *channel) Request(ctx context.Context, req transport.HTTPRequest) (transport.HTTPResponse, error) {
	endpoint := c.url.String()
	hr, err := http.NewRequestWithContext(ctx, c.method, endpoint, req.Body())
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	hr.Header = c.headers.Clone()
	if hr.Header == nil {
		hr.Header = http.Header{}
	}
	for k, vs := range req.Headers() {
		hr.Header[k] = vs
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(hr.Header))

	res, err := c.client.Do(hr)
	if err != nil {
		return nil, wrapTransportError(c.method, endpoint, err)
	}
	if !slices.Contains(c.statuses, res.StatusCode) {
		defer res.Body.Close()
		body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody+1))
		if err != nil {
			return nil, wrapTransportError(c.method, endpoint, fmt.Errorf("reading %d response: %w", res.StatusCode, err))
		}
		terr := NewTransportError(c.method, endpoint, res.StatusCode, res.Header, body)
		if len(body) > maxErrorBody {
			terr.body, terr.truncated = body[:maxErrorBody], true
		}
		return nil, terr
	}

	rctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(res.Header))
	return NewResponseWithContext(rctx, res.StatusCode, res.Body, res.Header), nil
}

// NewChannel creates a channel that POSTs to url and accepts 200 and 202.
func NewChannel(url *url.URL, options ...Option) transport.Channel {
	cfg := chanConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.client == nil {
		cfg.client = &http.Client{}
	}
	if cfg.method == "" {
		cfg.method = http.MethodPost
	}
	if len(cfg.statuses) == 0 {
		cfg.statuses = []int{http.StatusOK, http.StatusAccepted}
	}
	return &channel{
		url:      url,
		client:   cfg.client,
		method:   cfg.method,
		statuses: cfg.statuses,
		headers:  cfg.headers,
	}
}
