// Package server accepts signed requests for a canister, verifies them and
// dispatches them to method handlers.
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/transport"
	"github.com/storacha/go-candid/transport/cbor"
	thttp "github.com/storacha/go-candid/transport/http"
)

// DefaultAPIVersion is the path segment requests are routed under.
const DefaultAPIVersion = "v1"

// CallContext is the context provided to methods.
type CallContext interface {
	// ID is the canister the request was sent to.
	ID() principal.Principal
	// Sender is the verified sender of the request.
	Sender() principal.Principal
	RequestID() request.ID
	RequestType() request.RequestType
}

// Method handles a request. arg is the Candid encoded argument and the
// returned bytes are sent back as the reply.
type Method func(ctx context.Context, arg []byte, cc CallContext) ([]byte, error)

// Service is a mapping of method names to handlers.
type Service = map[string]Method

type Server interface {
	// ID is the canister the server hosts. Requests addressed to any other
	// canister are rejected.
	ID() principal.Principal
	Codec() transport.InboundCodec
	Service() Service
	Logger() zerolog.Logger
	Catch(err HandlerExecutionError)
}

// ServerView is a server that can also be mounted as an HTTP handler or
// used in-process as a transport channel.
type ServerView interface {
	Server
	http.Handler
	// Channel returns a channel that delivers requests straight to the
	// server, as if they had been posted to the endpoint of typ.
	Channel(typ request.RequestType) transport.Channel
	// Run executes a verified envelope and returns the reply.
	Run(ctx context.Context, envelope *request.Envelope) ([]byte, error)
}

// ErrorHandlerFunc allows errors returned by method handlers to be logged.
type ErrorHandlerFunc func(err HandlerExecutionError)

func NewServer(id principal.Principal, options ...Option) (ServerView, error) {
	cfg := srvConfig{service: Service{}, version: DefaultAPIVersion}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	codec := cfg.codec
	if codec == nil {
		codec = cbor.NewInboundCodec()
	}

	logger := zerolog.Nop()
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	catch := cfg.catch
	if catch == nil {
		catch = func(err HandlerExecutionError) {
			logger.Error().Str("method", err.Method()).Err(err.Cause()).Msg("method failed")
		}
	}

	svr := &server{
		id:      id,
		service: cfg.service,
		codec:   codec,
		catch:   catch,
		logger:  logger,
		prefix:  "/api/" + cfg.version + "/",
	}
	return svr, nil
}

type callContext struct {
	id  principal.Principal
	req *request.Request
}

func (cc *callContext) ID() principal.Principal {
	return cc.id
}

func (cc *callContext) Sender() principal.Principal {
	return cc.req.Sender()
}

func (cc *callContext) RequestID() request.ID {
	return cc.req.ID()
}

func (cc *callContext) RequestType() request.RequestType {
	return cc.req.Type()
}

var _ CallContext = (*callContext)(nil)

type server struct {
	id      principal.Principal
	service Service
	codec   transport.InboundCodec
	catch   ErrorHandlerFunc
	logger  zerolog.Logger
	prefix  string
}

func (srv *server) ID() principal.Principal {
	return srv.id
}

func (srv *server) Service() Service {
	return srv.service
}

func (srv *server) Codec() transport.InboundCodec {
	return srv.codec
}

func (srv *server) Logger() zerolog.Logger {
	return srv.logger
}

func (srv *server) Catch(err HandlerExecutionError) {
	srv.catch(err)
}

func (srv *server) Run(ctx context.Context, envelope *request.Envelope) ([]byte, error) {
	return Run(ctx, srv, envelope)
}

func (srv *server) Channel(typ request.RequestType) transport.Channel {
	return &channel{srv, typ}
}

func (srv *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var typ request.RequestType
	switch strings.TrimPrefix(path.Clean(r.URL.Path), srv.prefix) {
	case "submit":
		typ = request.Call
	case "read":
		typ = request.Query
	default:
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := Handle(r.Context(), srv, typ, thttp.NewInboundRequest(r.URL, r.Body, r.Header))
	if err != nil {
		srv.logger.Error().Err(err).Str("path", r.URL.Path).Msg("encoding response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer res.Body().Close()

	for k, vs := range res.Headers() {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(res.Status())
	if _, err := io.Copy(w, res.Body()); err != nil {
		srv.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("writing response")
	}
}

var _ ServerView = (*server)(nil)

// channel hands requests to the server without a network hop. Non-success
// responses are returned as errors, the way the HTTP channel returns them.
type channel struct {
	srv *server
	typ request.RequestType
}

func (c *channel) Request(ctx context.Context, req transport.HTTPRequest) (transport.HTTPResponse, error) {
	res, err := Handle(ctx, c.srv, c.typ, req)
	if err != nil {
		return nil, err
	}
	if res.Status() >= 300 {
		defer res.Body().Close()
		body, err := io.ReadAll(res.Body())
		if err != nil {
			return nil, err
		}
		return nil, thttp.NewTransportError(http.MethodPost, c.srv.prefix+endpoint(c.typ), res.Status(), res.Headers(), body)
	}
	return res, nil
}

var _ transport.Channel = (*channel)(nil)

func endpoint(typ request.RequestType) string {
	if typ == request.Query {
		return "read"
	}
	return "submit"
}

// Handle decodes, verifies and runs a request that arrived at the endpoint of
// typ. Failures are answered with an error status and the error text as the
// body; an error is returned only when the reply cannot be encoded.
func Handle(ctx context.Context, server Server, typ request.RequestType, req transport.HTTPRequest) (transport.HTTPResponse, error) {
	log := server.Logger()

	selection, aerr := server.Codec().Accept(req)
	if aerr != nil {
		return errorResponse(aerr.Status(), aerr.Error(), aerr.Headers()), nil
	}

	envelope, err := selection.Decoder().Decode(req)
	if err != nil {
		log.Debug().Err(err).Msg("decoding envelope")
		return errorResponse(http.StatusBadRequest, "The server failed to decode the request payload. Please format the payload according to the specified media type.", nil), nil
	}

	id := envelope.Content.ID()
	if err := envelope.Verify(); err != nil {
		log.Debug().Str("request_id", id.String()).Err(err).Msg("verifying envelope")
		return errorResponse(http.StatusUnauthorized, err.Error(), nil), nil
	}
	if envelope.Content.Type() != typ {
		err := NewInvalidRequestTypeError(typ, envelope.Content.Type())
		return errorResponse(http.StatusBadRequest, err.Error(), nil), nil
	}

	reply, err := Run(ctx, server, envelope)
	status := http.StatusOK
	if err != nil {
		status = statusOf(err)
	}
	log.Debug().
		Str("request_id", id.String()).
		Str("type", string(typ)).
		Str("method", envelope.Content.Method()).
		Str("sender", envelope.Content.Sender().String()).
		Int("status", status).
		Msg("handled request")
	if err != nil {
		return errorResponse(status, err.Error(), nil), nil
	}

	return selection.Encoder().Encode(reply)
}

// Run executes an envelope that has already been verified.
func Run(ctx context.Context, server Server, envelope *request.Envelope) ([]byte, error) {
	req := envelope.Content
	if req.Canister() != server.ID() {
		return nil, NewCanisterNotFoundError(req.Canister())
	}

	handle, ok := server.Service()[req.Method()]
	if !ok {
		return nil, NewHandlerNotFoundError(req.Method())
	}

	reply, err := handle(ctx, req.Arg(), &callContext{id: server.ID(), req: req})
	if err != nil {
		herr := NewHandlerExecutionError(err, req.Method())
		server.Catch(herr)
		return nil, herr
	}
	return reply, nil
}

func statusOf(err error) int {
	var (
		aerr ArgumentError
		cerr CanisterNotFoundError
		nerr handlerNotFoundError
	)
	switch {
	case errors.As(err, &aerr):
		return http.StatusBadRequest
	case errors.As(err, &cerr), errors.As(err, &nerr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(status int, message string, headers http.Header) transport.HTTPResponse {
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	return thttp.NewResponse(status, io.NopCloser(bytes.NewReader([]byte(message))), headers)
}
