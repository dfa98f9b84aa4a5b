package client

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/transport"
	"github.com/storacha/go-candid/transport/cbor"
	thttp "github.com/storacha/go-candid/transport/http"
)

// DefaultAPIVersion is the path segment of the replica API.
const DefaultAPIVersion = "v1"

// Connection is a binding to one canister, through one signing identity.
type Connection interface {
	// ID is the canister the connection talks to.
	ID() principal.Principal
	Signer() principal.Signer
	// SubmitChannel carries update calls.
	SubmitChannel() transport.Channel
	// ReadChannel carries queries.
	ReadChannel() transport.Channel
	Codec() transport.OutboundCodec
	Logger() zerolog.Logger
	// Nonce returns the nonce for the next request. ok is false when the
	// request should get a random one.
	Nonce() (nonce []byte, ok bool)
}

// Option is an option configuring a connection.
type Option func(cfg *connConfig) error

type connConfig struct {
	version string
	client  *http.Client
	codec   transport.OutboundCodec
	logger  *zerolog.Logger
	nonce   func() []byte
}

// WithAPIVersion sets the API version used to build endpoint URLs. Only
// meaningful for [NewHTTPConnection].
func WithAPIVersion(version string) Option {
	return func(cfg *connConfig) error {
		if version == "" {
			return fmt.Errorf("empty API version")
		}
		cfg.version = version
		return nil
	}
}

// WithHTTPClient sets the client the HTTP channels use. Only meaningful for
// [NewHTTPConnection].
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *connConfig) error {
		cfg.client = c
		return nil
	}
}

// WithCodec replaces the CBOR envelope codec.
func WithCodec(codec transport.OutboundCodec) Option {
	return func(cfg *connConfig) error {
		cfg.codec = codec
		return nil
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *connConfig) error {
		cfg.logger = &logger
		return nil
	}
}

// WithNonce sets a nonce source, called once per request. A source that
// returns nil produces requests without a nonce; an empty slice is sent as an
// empty nonce.
func WithNonce(source func() []byte) Option {
	return func(cfg *connConfig) error {
		cfg.nonce = source
		return nil
	}
}

func newConfig(options []Option) (connConfig, error) {
	cfg := connConfig{version: DefaultAPIVersion}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return cfg, err
		}
	}
	if cfg.codec == nil {
		cfg.codec = cbor.NewOutboundCodec()
	}
	if cfg.logger == nil {
		nop := zerolog.Nop()
		cfg.logger = &nop
	}
	return cfg, nil
}

// NewConnection creates a connection over the given channels.
func NewConnection(canister principal.Principal, signer principal.Signer, submit, read transport.Channel, options ...Option) (Connection, error) {
	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}
	return &conn{
		id:     canister,
		signer: signer,
		submit: submit,
		read:   read,
		codec:  cfg.codec,
		logger: *cfg.logger,
		nonce:  cfg.nonce,
	}, nil
}

// NewHTTPConnection creates a connection to the replica at host, which
// serves {host}/api/{version}/submit and {host}/api/{version}/read.
func NewHTTPConnection(host string, canister principal.Principal, signer principal.Signer, options ...Option) (Connection, error) {
	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing host: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("host %q is not an absolute URL", host)
	}
	client := cfg.client
	if client == nil {
		client = &http.Client{}
	}
	// submit answers 202 with no body
	submit := thttp.NewChannel(base.JoinPath("api", cfg.version, "submit"), thttp.WithClient(client), thttp.WithSuccessStatusCode(http.StatusOK, http.StatusAccepted))
	read := thttp.NewChannel(base.JoinPath("api", cfg.version, "read"), thttp.WithClient(client), thttp.WithSuccessStatusCode(http.StatusOK))
	return NewConnection(canister, signer, submit, read, options...)
}

type conn struct {
	id     principal.Principal
	signer principal.Signer
	submit transport.Channel
	read   transport.Channel
	codec  transport.OutboundCodec
	logger zerolog.Logger
	nonce  func() []byte
}

func (c *conn) ID() principal.Principal {
	return c.id
}

func (c *conn) Signer() principal.Signer {
	return c.signer
}

func (c *conn) SubmitChannel() transport.Channel {
	return c.submit
}

func (c *conn) ReadChannel() transport.Channel {
	return c.read
}

func (c *conn) Codec() transport.OutboundCodec {
	return c.codec
}

func (c *conn) Logger() zerolog.Logger {
	return c.logger
}

func (c *conn) Nonce() ([]byte, bool) {
	if c.nonce == nil {
		return nil, false
	}
	return bytes.Clone(c.nonce()), true
}

var _ Connection = (*conn)(nil)
