package actor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storacha/go-candid/client"
	"github.com/storacha/go-candid/core/candid"
	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/server"
	"github.com/storacha/go-candid/testing/fixtures"
	"github.com/storacha/go-candid/testing/helpers"
)

// a small key-value canister
func newInterface() (*candid.TypeTable, *candid.ServiceType) {
	env := candid.NewTypeTable()
	entry := env.Define("entry", candid.Record(candid.Field("key", candid.Text), candid.Field("value", candid.Nat)))
	result := env.Define("result", candid.Variant(candid.Field("ok", candid.Nat), candid.Field("err", candid.Text)))
	iface := candid.Service(
		candid.Method("put", candid.Func([]candid.Type{entry}, []candid.Type{result})),
		candid.Method("get", candid.Func([]candid.Type{candid.Text}, []candid.Type{candid.Opt(candid.Nat)}, candid.Query)),
		candid.Method("log", candid.Func([]candid.Type{candid.Text}, nil, candid.Oneway)),
	)
	return env, iface
}

type store struct {
	data    map[string]uint64
	logged  []string
	queries int
	calls   int
}

func newReplica(t *testing.T, iface *candid.ServiceType) (*store, server.ServerView) {
	t.Helper()
	s := &store{data: map[string]uint64{}}
	put, _ := iface.Method("put")
	get, _ := iface.Method("get")
	log, _ := iface.Method("log")
	srv := helpers.Must(server.NewServer(fixtures.Canister,
		server.WithCandidMethod("put", put, func(ctx context.Context, args []any, cc server.CallContext) ([]any, error) {
			s.calls++
			require.Equal(t, request.Call, cc.RequestType())
			rec := args[0].(candid.RecordValue)
			key, _ := rec.Get("key")
			value, _ := rec.Get("value")
			if key.(string) == "" {
				return []any{candid.V("err", "empty key")}, nil
			}
			n := value.(interface{ Uint64() uint64 }).Uint64()
			s.data[key.(string)] = n
			return []any{candid.V("ok", n)}, nil
		}),
		server.WithCandidMethod("get", get, func(ctx context.Context, args []any, cc server.CallContext) ([]any, error) {
			s.queries++
			require.Equal(t, request.Query, cc.RequestType())
			n, ok := s.data[args[0].(string)]
			if !ok {
				return []any{candid.None()}, nil
			}
			return []any{candid.Some(n)}, nil
		}),
		server.WithCandidMethod("log", log, func(ctx context.Context, args []any, cc server.CallContext) ([]any, error) {
			s.logged = append(s.logged, args[0].(string))
			return nil, nil
		}),
	))
	return s, srv
}

func newActor(t *testing.T, options ...Option) (*store, *Actor) {
	t.Helper()
	env, iface := newInterface()
	s, srv := newReplica(t, iface)
	conn := helpers.Must(client.NewConnection(fixtures.Canister, fixtures.Alice, srv.Channel(request.Call), srv.Channel(request.Query)))
	options = append([]Option{WithTypeTable(env)}, options...)
	return s, helpers.Must(New(conn, iface, options...))
}

func TestActor(t *testing.T) {
	t.Run("update and query", func(t *testing.T) {
		s, a := newActor(t)

		res, err := a.Call(context.Background(), "put", map[string]any{"key": "x", "value": 42})
		require.NoError(t, err)
		require.Len(t, res, 1)
		v := res[0].(candid.VariantValue)
		require.Equal(t, "ok", v.Name)

		res, err = a.Call(context.Background(), "get", "x")
		require.NoError(t, err)
		opt := res[0].(candid.OptValue)
		require.True(t, opt.Present)
		require.Equal(t, "42", candid.Format(opt.Value))

		res, err = a.Call(context.Background(), "get", "y")
		require.NoError(t, err)
		require.False(t, res[0].(candid.OptValue).Present)

		require.Equal(t, 1, s.calls)
		require.Equal(t, 2, s.queries)
	})

	t.Run("variant error case", func(t *testing.T) {
		_, a := newActor(t)
		res, err := a.Call(context.Background(), "put", candid.NewRecord(candid.F("key", ""), candid.F("value", 1)))
		require.NoError(t, err)
		v := res[0].(candid.VariantValue)
		require.Equal(t, "err", v.Name)
		require.Equal(t, "empty key", v.Value)
	})

	t.Run("oneway", func(t *testing.T) {
		s, a := newActor(t)
		res, err := a.Call(context.Background(), "log", "hello")
		require.NoError(t, err)
		require.Nil(t, res)
		require.Equal(t, []string{"hello"}, s.logged)
	})

	t.Run("headers are cached", func(t *testing.T) {
		_, a := newActor(t, WithHeaderCacheSize(1))
		_, err := a.Call(context.Background(), "get", "x")
		require.NoError(t, err)
		h, ok := a.headers.Get("get")
		require.True(t, ok)
		// magic, empty table, one text argument
		require.Equal(t, []byte("DIDL\x00\x01\x71"), h)

		_, err = a.Call(context.Background(), "put", map[string]any{"key": "x", "value": 1})
		require.NoError(t, err)
		_, ok = a.headers.Get("get")
		require.False(t, ok)
		h, ok = a.headers.Get("put")
		require.True(t, ok)
		// only the entry label is carried, not result
		tt := candid.NewTypeTable()
		env, _ := newInterface()
		entry, _ := env.Lookup("entry")
		want := helpers.Must(candid.Header(tt, []candid.Type{entry.Definition()}))
		require.Equal(t, want, h)
	})

	t.Run("arity", func(t *testing.T) {
		_, a := newActor(t)
		_, err := a.Call(context.Background(), "get")
		require.Error(t, err)
		_, err = a.Call(context.Background(), "get", "a", "b")
		require.Error(t, err)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, a := newActor(t)
		_, err := a.Call(context.Background(), "delete", "x")
		require.True(t, errors.Is(err, ErrMethodNotFound))
		_, ok := a.Method("delete")
		require.False(t, ok)
		fn, ok := a.Method("get")
		require.True(t, ok)
		require.True(t, fn.IsQuery())
	})

	t.Run("bad argument value", func(t *testing.T) {
		_, a := newActor(t)
		_, err := a.Call(context.Background(), "get", 7)
		require.ErrorIs(t, err, candid.TypeMismatch)
	})

	t.Run("negative cache size", func(t *testing.T) {
		env, iface := newInterface()
		_, srv := newReplica(t, iface)
		conn := helpers.Must(client.NewConnection(fixtures.Canister, fixtures.Alice, srv.Channel(request.Call), srv.Channel(request.Query)))
		_, err := New(conn, iface, WithTypeTable(env), WithHeaderCacheSize(-1))
		require.Error(t, err)
	})
}
