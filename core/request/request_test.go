package request

import (
	"bytes"
	"testing"

	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/testing/fixtures"
	"github.com/storacha/go-candid/testing/helpers"
	"github.com/stretchr/testify/require"
)

var arg = []byte("DIDL\x00\x00")

func newCall(t *testing.T, options ...Option) *Request {
	t.Helper()
	options = append([]Option{WithNonce([]byte{1, 2, 3})}, options...)
	req, err := New(Call, fixtures.Canister, "greet", arg, fixtures.Alice.Principal(), options...)
	require.NoError(t, err)
	return req
}

func TestHashOfMap(t *testing.T) {
	fields := []Field{
		{"request_type", []byte("call")},
		{"canister_id", helpers.FromHex("00000000000004d2")},
		{"method_name", []byte("hello")},
		{"arg", []byte("DIDL\x00\xfd*")},
	}

	t.Run("known vector", func(t *testing.T) {
		require.Equal(t, "8781291c347db32a9d8c10eb62b710fce5a93be676474c42babc74c51858f94b", HashOfMap(fields).String())
	})

	t.Run("order independent", func(t *testing.T) {
		reversed := []Field{fields[3], fields[2], fields[1], fields[0]}
		require.Equal(t, HashOfMap(fields), HashOfMap(reversed))
	})

	t.Run("sensitive to values", func(t *testing.T) {
		changed := append([]Field{}, fields...)
		changed[2] = Field{"method_name", []byte("hellp")}
		require.NotEqual(t, HashOfMap(fields), HashOfMap(changed))
	})
}

func TestNew(t *testing.T) {
	t.Run("random nonce", func(t *testing.T) {
		a, err := New(Call, fixtures.Canister, "greet", arg, fixtures.Alice.Principal())
		require.NoError(t, err)
		b, err := New(Call, fixtures.Canister, "greet", arg, fixtures.Alice.Principal())
		require.NoError(t, err)
		require.Len(t, a.Nonce(), NonceSize)
		require.NotEqual(t, a.ID(), b.ID())
	})

	t.Run("without nonce", func(t *testing.T) {
		req := newCall(t, WithoutNonce())
		require.Nil(t, req.Nonce())
		for _, f := range req.Fields() {
			require.NotEqual(t, "nonce", f.Name)
		}
	})

	t.Run("fields in envelope order", func(t *testing.T) {
		var names []string
		for _, f := range newCall(t).Fields() {
			names = append(names, f.Name)
		}
		require.Equal(t, []string{"arg", "canister_id", "method_name", "nonce", "request_type", "sender"}, names)
	})

	t.Run("id is stable", func(t *testing.T) {
		require.Equal(t, newCall(t).ID(), newCall(t).ID())
		require.NotEqual(t, newCall(t).ID(), newCall(t, WithNonce([]byte{4})).ID())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := New("read_state", fixtures.Canister, "greet", arg, fixtures.Alice.Principal())
		require.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("signature verifies", func(t *testing.T) {
		req := newCall(t)
		env, err := req.Authenticate(fixtures.Alice)
		require.NoError(t, err)
		id := req.ID()
		require.True(t, fixtures.Alice.Verifier().Verify(id[:], env.SenderSig))
		require.NoError(t, env.Verify())
	})

	t.Run("signer must be sender", func(t *testing.T) {
		_, err := newCall(t).Authenticate(fixtures.Bob)
		require.ErrorIs(t, err, SenderMismatch)
	})

	t.Run("tampered content", func(t *testing.T) {
		env, err := newCall(t).Authenticate(fixtures.Alice)
		require.NoError(t, err)
		other, err := New(Call, fixtures.Canister, "steal", arg, fixtures.Alice.Principal(), WithNonce([]byte{1, 2, 3}))
		require.NoError(t, err)
		env.Content = other
		require.ErrorIs(t, env.Verify(), SignatureVerificationFailed)
	})

	t.Run("tampered signature", func(t *testing.T) {
		env, err := newCall(t).Authenticate(fixtures.Alice)
		require.NoError(t, err)
		env.SenderSig = bytes.Clone(env.SenderSig)
		env.SenderSig[0] ^= 1
		require.ErrorIs(t, env.Verify(), SignatureVerificationFailed)
	})

	t.Run("key does not derive sender", func(t *testing.T) {
		// Mallory signs a request claiming to come from Alice
		req := newCall(t)
		id := req.ID()
		env := &Envelope{Content: req, SenderPubKey: fixtures.Mallory.PublicKey(), SenderSig: fixtures.Mallory.Sign(id[:])}
		require.ErrorIs(t, env.Verify(), SenderMismatch)
	})

	t.Run("malformed key", func(t *testing.T) {
		env, err := newCall(t).Authenticate(fixtures.Alice)
		require.NoError(t, err)
		env.SenderPubKey = []byte{1, 2, 3}
		require.ErrorIs(t, env.Verify(), SignatureVerificationFailed)
	})
}

func TestEnvelope(t *testing.T) {
	req := newCall(t)
	env, err := req.Authenticate(fixtures.Alice)
	require.NoError(t, err)

	data, err := env.Encode()
	require.NoError(t, err)

	t.Run("layout", func(t *testing.T) {
		sender := fixtures.Alice.Principal().Bytes()
		require.Len(t, sender, 29)

		var want []byte
		want = append(want, 0xd9, 0xd9, 0xf7, 0xa3)
		want = append(want, 0x67)
		want = append(want, "content"...)
		want = append(want, 0xa6)
		want = append(want, 0x63)
		want = append(want, "arg"...)
		want = append(want, 0x46)
		want = append(want, arg...)
		want = append(want, 0x6b)
		want = append(want, "canister_id"...)
		want = append(want, 0x4a)
		want = append(want, fixtures.Canister.Bytes()...)
		want = append(want, 0x6b)
		want = append(want, "method_name"...)
		want = append(want, 0x65)
		want = append(want, "greet"...)
		want = append(want, 0x65)
		want = append(want, "nonce"...)
		want = append(want, 0x43, 1, 2, 3)
		want = append(want, 0x6c)
		want = append(want, "request_type"...)
		want = append(want, 0x64)
		want = append(want, "call"...)
		want = append(want, 0x66)
		want = append(want, "sender"...)
		want = append(want, 0x58, 29)
		want = append(want, sender...)
		want = append(want, 0x6d)
		want = append(want, "sender_pubkey"...)
		want = append(want, 0x58, 32)
		want = append(want, fixtures.Alice.PublicKey()...)
		want = append(want, 0x6a)
		want = append(want, "sender_sig"...)
		want = append(want, 0x58, 64)
		want = append(want, env.SenderSig...)

		require.Equal(t, want, data)
	})

	t.Run("decode and verify", func(t *testing.T) {
		decoded, err := DecodeEnvelope(data)
		require.NoError(t, err)
		require.NoError(t, decoded.Verify())
		require.Equal(t, req.ID(), decoded.Content.ID())
		require.Equal(t, Call, decoded.Content.Type())
		require.Equal(t, "greet", decoded.Content.Method())
		require.Equal(t, fixtures.Canister, decoded.Content.Canister())
		require.Equal(t, []byte{1, 2, 3}, decoded.Content.Nonce())
	})

	t.Run("management canister and no nonce", func(t *testing.T) {
		req, err := New(Query, principal.Management(), "status", nil, fixtures.Alice.Principal(), WithoutNonce())
		require.NoError(t, err)
		env, err := req.Authenticate(fixtures.Alice)
		require.NoError(t, err)
		data, err := env.Encode()
		require.NoError(t, err)
		// the empty canister id is an empty byte string, not null
		require.Contains(t, string(data), "\x6bcanister_id\x40")
		require.NotContains(t, string(data), "nonce")

		decoded, err := DecodeEnvelope(data)
		require.NoError(t, err)
		require.NoError(t, decoded.Verify())
		require.Equal(t, principal.Management(), decoded.Content.Canister())
		require.Nil(t, decoded.Content.Nonce())
	})

	t.Run("empty nonce is kept", func(t *testing.T) {
		req, err := New(Call, fixtures.Canister, "greet", arg, fixtures.Alice.Principal(), WithNonce([]byte{}))
		require.NoError(t, err)
		require.NotNil(t, req.Nonce())
		require.Empty(t, req.Nonce())
		require.Contains(t, req.Fields(), Field{"nonce", []byte{}})

		bare, err := New(Call, fixtures.Canister, "greet", arg, fixtures.Alice.Principal(), WithoutNonce())
		require.NoError(t, err)
		require.NotEqual(t, bare.ID(), req.ID())

		env, err := req.Authenticate(fixtures.Alice)
		require.NoError(t, err)
		data, err := env.Encode()
		require.NoError(t, err)
		require.Contains(t, string(data), "\x65nonce\x40")

		decoded, err := DecodeEnvelope(data)
		require.NoError(t, err)
		require.NotNil(t, decoded.Content.Nonce())
		require.Empty(t, decoded.Content.Nonce())
		require.Equal(t, req.ID(), decoded.Content.ID())
		require.NoError(t, decoded.Verify())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte{0xd9, 0xd9, 0xf7, 0x01})
		require.ErrorIs(t, err, InvalidEnvelope)
	})
}
