package sha256

import (
	"encoding/hex"
	"testing"

	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func TestHasher(t *testing.T) {
	d, err := Hasher.Sum([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(d.Digest()))
	require.Equal(t, uint64(Size), d.Size())

	decoded, err := multihash.Decode(d.Bytes())
	require.NoError(t, err)
	require.Equal(t, uint64(Code), decoded.Code)
	require.Equal(t, d.Digest(), decoded.Digest)

	sum := Sum([]byte("abc"))
	require.Equal(t, d.Digest(), sum[:])
}
