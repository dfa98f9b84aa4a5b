package leb128

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnsigned(t *testing.T) {
	t.Run("known vectors", func(t *testing.T) {
		require.Equal(t, []byte{0x00}, AppendUnsigned(nil, 0))
		require.Equal(t, []byte{0x7f}, AppendUnsigned(nil, 127))
		require.Equal(t, []byte{0x80, 0x01}, AppendUnsigned(nil, 128))
		require.Equal(t, []byte{0xe5, 0x8e, 0x26}, AppendUnsigned(nil, 624485))
	})

	t.Run("size matches written length", func(t *testing.T) {
		for _, n := range []uint64{0, 1, 127, 128, 16383, 16384, 1 << 32, 1<<63 - 1, 1 << 63, math.MaxUint64} {
			buf := make([]byte, SizeUnsigned(n))
			w := WriteUnsigned(buf, n)
			require.Equal(t, len(buf), w, "value %d", n)

			x, r, err := ReadUnsigned(buf)
			require.NoError(t, err)
			require.Equal(t, w, r)
			require.Equal(t, n, x)
		}
	})

	t.Run("accepts non-minimal", func(t *testing.T) {
		x, n, err := ReadUnsigned([]byte{0x81, 0x80, 0x00})
		require.NoError(t, err)
		require.Equal(t, uint64(1), x)
		require.Equal(t, 3, n)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := ReadUnsigned([]byte{0x80, 0x80})
		require.ErrorIs(t, err, ErrUnexpectedEnd)
		_, _, err = ReadUnsigned(nil)
		require.ErrorIs(t, err, ErrUnexpectedEnd)
	})

	t.Run("overflow", func(t *testing.T) {
		_, _, err := ReadUnsigned([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02})
		require.ErrorIs(t, err, ErrOverflow)
	})
}

func TestSigned(t *testing.T) {
	t.Run("known vectors", func(t *testing.T) {
		require.Equal(t, []byte{0x00}, AppendSigned(nil, 0))
		require.Equal(t, []byte{0x7f}, AppendSigned(nil, -1))
		require.Equal(t, []byte{0x3f}, AppendSigned(nil, 63))
		require.Equal(t, []byte{0xc0, 0x00}, AppendSigned(nil, 64))
		require.Equal(t, []byte{0x40}, AppendSigned(nil, -64))
		require.Equal(t, []byte{0xbf, 0x7f}, AppendSigned(nil, -65))
		require.Equal(t, []byte{0xc0, 0xbb, 0x78}, AppendSigned(nil, -123456))
		require.Equal(t, []byte{0x68}, AppendSigned(nil, -24))
	})

	t.Run("size matches written length", func(t *testing.T) {
		for _, n := range []int64{0, 1, -1, 63, 64, -64, -65, 8191, -8192, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64} {
			buf := make([]byte, SizeSigned(n))
			w := WriteSigned(buf, n)
			require.Equal(t, len(buf), w, "value %d", n)

			x, r, err := ReadSigned(buf)
			require.NoError(t, err)
			require.Equal(t, w, r)
			require.Equal(t, n, x)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := ReadSigned([]byte{0xff})
		require.ErrorIs(t, err, ErrUnexpectedEnd)
	})
}

func TestBig(t *testing.T) {
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211457", 10)
	require.True(t, ok)
	negHuge := new(big.Int).Neg(huge)

	t.Run("unsigned round trip", func(t *testing.T) {
		for _, v := range []*big.Int{big.NewInt(0), big.NewInt(624485), new(big.Int).SetUint64(math.MaxUint64), huge} {
			b := AppendBigUnsigned(nil, v)
			require.Equal(t, SizeBigUnsigned(v), len(b))

			x, n, err := ReadBigUnsigned(b)
			require.NoError(t, err)
			require.Equal(t, len(b), n)
			require.Equal(t, 0, v.Cmp(x), "want %s got %s", v, x)
		}
	})

	t.Run("signed round trip", func(t *testing.T) {
		minus := new(big.Int).Sub(big.NewInt(math.MinInt64), big.NewInt(1))
		for _, v := range []*big.Int{big.NewInt(0), big.NewInt(-123456), big.NewInt(math.MaxInt64), minus, huge, negHuge} {
			b := AppendBigSigned(nil, v)
			require.Equal(t, SizeBigSigned(v), len(b))

			x, n, err := ReadBigSigned(b)
			require.NoError(t, err)
			require.Equal(t, len(b), n)
			require.Equal(t, 0, v.Cmp(x), "want %s got %s", v, x)
		}
	})

	t.Run("small values normalise", func(t *testing.T) {
		x, _, err := ReadBigUnsigned([]byte{0x01})
		require.NoError(t, err)
		require.Equal(t, big.NewInt(1), x)

		y, _, err := ReadBigSigned([]byte{0x7f})
		require.NoError(t, err)
		require.Equal(t, big.NewInt(-1), y)
	})
}
