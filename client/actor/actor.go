// Package actor binds a service interface to a connection, so methods are
// called with Go values instead of encoded messages.
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/storacha/go-candid/client"
	"github.com/storacha/go-candid/core/candid"
)

// ErrMethodNotFound is returned for a method the interface does not declare.
var ErrMethodNotFound = errors.New("method not found")

// Option is an option configuring an actor.
type Option func(cfg *actorConfig) error

type actorConfig struct {
	env       *candid.TypeTable
	cacheSize int
}

// WithTypeTable sets the environment the interface's labels are defined in.
func WithTypeTable(env *candid.TypeTable) Option {
	return func(cfg *actorConfig) error {
		cfg.env = env
		return nil
	}
}

// WithHeaderCacheSize sets how many method headers are kept.
func WithHeaderCacheSize(size int) Option {
	return func(cfg *actorConfig) error {
		if size < 0 {
			return fmt.Errorf("negative header cache size %d", size)
		}
		cfg.cacheSize = size
		return nil
	}
}

// Actor is safe for concurrent use.
type Actor struct {
	conn    client.Connection
	iface   *candid.ServiceType
	env     *candid.TypeTable
	headers *headerCache
}

func New(conn client.Connection, iface *candid.ServiceType, options ...Option) (*Actor, error) {
	cfg := actorConfig{}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.env == nil {
		cfg.env = candid.NewTypeTable()
	}
	for _, m := range iface.Methods {
		if _, ok := iface.Method(m.Name); !ok {
			return nil, fmt.Errorf("method %q is not a function", m.Name)
		}
	}
	headers, err := newHeaderCache(cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Actor{conn: conn, iface: iface, env: cfg.env, headers: headers}, nil
}

// Method returns the signature of a method.
func (a *Actor) Method(name string) (*candid.FuncType, bool) {
	return a.iface.Method(name)
}

// Call encodes args by the method's argument types, sends them through the
// read endpoint for query methods and the submit endpoint otherwise, and
// decodes the reply by the result types. Oneway methods return no values.
func (a *Actor) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	fn, ok := a.iface.Method(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	if len(args) != len(fn.Args) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method, len(fn.Args), len(args))
	}

	header, err := a.header(method, fn)
	if err != nil {
		return nil, fmt.Errorf("encoding %s argument types: %w", method, err)
	}
	arg, err := candid.AppendValues(header, fn.Args, args)
	if err != nil {
		return nil, fmt.Errorf("encoding %s arguments: %w", method, err)
	}

	var reply []byte
	if fn.IsQuery() {
		reply, err = client.Read(ctx, a.conn, method, arg)
	} else {
		reply, err = client.Submit(ctx, a.conn, method, arg)
	}
	if err != nil {
		return nil, err
	}
	if fn.IsOneway() {
		return nil, nil
	}

	results, err := candid.Unmarshal(reply, fn.Results)
	if err != nil {
		return nil, fmt.Errorf("decoding %s reply: %w", method, err)
	}
	return results, nil
}

func (a *Actor) header(method string, fn *candid.FuncType) ([]byte, error) {
	if h, ok := a.headers.Get(method); ok {
		return h, nil
	}
	h, err := buildHeader(a.env, fn.Args)
	if err != nil {
		return nil, err
	}
	a.headers.Put(method, h)
	return h, nil
}
