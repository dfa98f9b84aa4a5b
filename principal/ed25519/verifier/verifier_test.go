package verifier

import (
	"crypto/ed25519"
	"testing"

	"github.com/storacha/go-candid/principal"
	"github.com/stretchr/testify/require"
)

func TestFromRaw(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	v, err := FromRaw(pub)
	require.NoError(t, err)
	require.Equal(t, []byte(pub), v.Raw())
	require.Equal(t, principal.SelfAuthenticating(pub), v.Principal())

	msg := []byte("hello")
	require.True(t, v.Verify(msg, ed25519.Sign(priv, msg)))
	require.False(t, v.Verify(msg, []byte{1, 2, 3}))

	_, err = FromRaw(pub[:10])
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	v0, err := FromRaw(pub)
	require.NoError(t, err)

	v1, err := Decode(v0.Encode())
	require.NoError(t, err)
	require.Equal(t, v0.Raw(), v1.Raw())

	bad := append([]byte{}, v0.Encode()...)
	bad[0] = 0x01
	_, err = Decode(bad)
	require.Error(t, err)
}
