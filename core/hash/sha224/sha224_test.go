package sha224

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasher(t *testing.T) {
	d, err := Hasher.Sum([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "23097d223405d8228642a477bda255b32aadbce4bda0b3f7e36c9da7", hex.EncodeToString(d.Digest()))
	require.Len(t, d.Bytes(), 2+1+Size)

	sum := Sum([]byte("abc"))
	require.Equal(t, d.Digest(), sum[:])
}
