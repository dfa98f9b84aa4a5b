package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storacha/go-candid/core/candid"
	"github.com/storacha/go-candid/transport"
)

// Option is an option configuring a server.
type Option func(cfg *srvConfig) error

type srvConfig struct {
	codec   transport.InboundCodec
	service Service
	version string
	logger  *zerolog.Logger
	catch   ErrorHandlerFunc
}

// WithMethod registers the handler of a method.
func WithMethod(name string, fn Method) Option {
	return func(cfg *srvConfig) error {
		if _, ok := cfg.service[name]; ok {
			return fmt.Errorf("method %q already registered", name)
		}
		cfg.service[name] = fn
		return nil
	}
}

// CandidMethod handles a call with decoded arguments and returns the values
// of the results.
type CandidMethod func(ctx context.Context, args []any, cc CallContext) ([]any, error)

// WithCandidMethod registers a method whose argument is decoded by the
// argument types of fn and whose results are encoded by its result types.
func WithCandidMethod(name string, fn *candid.FuncType, handler CandidMethod) Option {
	return WithMethod(name, func(ctx context.Context, arg []byte, cc CallContext) ([]byte, error) {
		args, err := candid.Unmarshal(arg, fn.Args)
		if err != nil {
			return nil, ArgumentError{err}
		}
		results, err := handler(ctx, args, cc)
		if err != nil {
			return nil, err
		}
		return candid.Marshal(fn.Results, results)
	})
}

// WithInboundCodec configures the codec used to decode requests and encode
// responses.
func WithInboundCodec(codec transport.InboundCodec) Option {
	return func(cfg *srvConfig) error {
		cfg.codec = codec
		return nil
	}
}

// WithAPIVersion sets the path segment the server routes under.
func WithAPIVersion(version string) Option {
	return func(cfg *srvConfig) error {
		if version == "" {
			return fmt.Errorf("empty API version")
		}
		cfg.version = version
		return nil
	}
}

// WithErrorHandler configures a function to be called when errors occur during
// execution of a handler.
func WithErrorHandler(fn ErrorHandlerFunc) Option {
	return func(cfg *srvConfig) error {
		cfg.catch = fn
		return nil
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *srvConfig) error {
		cfg.logger = &logger
		return nil
	}
}
