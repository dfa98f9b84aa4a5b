package cbor

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/testing/fixtures"
	thttp "github.com/storacha/go-candid/transport/http"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	req, err := request.New(request.Call, fixtures.Canister, "greet", []byte("DIDL\x00\x00"), fixtures.Alice.Principal())
	require.NoError(t, err)
	env, err := req.Authenticate(fixtures.Alice)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		hr, err := NewOutboundCodec().Encode(env)
		require.NoError(t, err)
		require.Equal(t, ContentType, hr.Headers().Get("Content-Type"))

		accept, herr := NewInboundCodec().Accept(hr)
		require.Nil(t, herr)
		decoded, err := accept.Decoder().Decode(hr)
		require.NoError(t, err)
		require.NoError(t, decoded.Verify())
		require.Equal(t, req.ID(), decoded.Content.ID())

		res, err := accept.Encoder().Encode([]byte("DIDL\x00\x01\x71\x00"))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.Status())
		reply, err := NewOutboundCodec().Decode(res)
		require.NoError(t, err)
		require.Equal(t, []byte("DIDL\x00\x01\x71\x00"), reply)
	})

	t.Run("content type with parameters", func(t *testing.T) {
		hdrs := http.Header{}
		hdrs.Set("Content-Type", "application/cbor; charset=binary")
		_, herr := NewInboundCodec().Accept(thttp.NewRequest(http.NoBody, hdrs))
		require.Nil(t, herr)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		hdrs := http.Header{}
		hdrs.Set("Content-Type", "application/json")
		_, herr := NewInboundCodec().Accept(thttp.NewRequest(http.NoBody, hdrs))
		require.NotNil(t, herr)
		require.Equal(t, http.StatusUnsupportedMediaType, herr.Status())

		_, herr = NewInboundCodec().Accept(thttp.NewRequest(http.NoBody, nil))
		require.NotNil(t, herr)
	})

	t.Run("oversized body", func(t *testing.T) {
		hdrs := http.Header{}
		hdrs.Set("Content-Type", ContentType)
		body := io.MultiReader(bytes.NewReader([]byte{0xd9, 0xd9, 0xf7}), bytes.NewReader(make([]byte, 4<<20)))
		accept, herr := NewInboundCodec().Accept(thttp.NewRequest(body, hdrs))
		require.Nil(t, herr)
		_, err := accept.Decoder().Decode(thttp.NewRequest(body, hdrs))
		require.Error(t, err)
	})

	t.Run("garbage body", func(t *testing.T) {
		_, err := (&InboundAcceptCodec{}).Decode(thttp.NewRequest(bytes.NewReader([]byte{1, 2, 3}), nil))
		require.ErrorIs(t, err, request.InvalidEnvelope)
	})
}
