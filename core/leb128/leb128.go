// Package leb128 reads and writes little-endian base-128 integers, the
// variable length encoding Candid uses for lengths, counts, field ids, table
// indices and the arbitrary precision nat and int types.
//
// The unsigned 64-bit form is the multiformats unsigned varint, so sizing and
// writing delegate to go-varint. Readers accept non-minimal encodings since
// Candid does not forbid them.
package leb128

import (
	"errors"
	"math/big"

	"github.com/multiformats/go-varint"
)

var (
	// ErrUnexpectedEnd is returned when the input ends before a terminating
	// byte (high bit clear) is found.
	ErrUnexpectedEnd = errors.New("leb128: unexpected end of input")
	// ErrOverflow is returned when a value does not fit the requested width.
	ErrOverflow = errors.New("leb128: value overflows 64 bits")
)

// SizeUnsigned returns the number of bytes WriteUnsigned uses for n.
func SizeUnsigned(n uint64) int {
	return varint.UvarintSize(n)
}

// WriteUnsigned writes n to dst, which must have room for SizeUnsigned(n)
// bytes, and returns the number of bytes written.
func WriteUnsigned(dst []byte, n uint64) int {
	return varint.PutUvarint(dst, n)
}

// AppendUnsigned appends the encoding of n to dst.
func AppendUnsigned(dst []byte, n uint64) []byte {
	var buf [varint.MaxLenUvarint63 + 1]byte
	w := WriteUnsigned(buf[:], n)
	return append(dst, buf[:w]...)
}

// ReadUnsigned decodes an unsigned value from the start of src, returning the
// value and the number of bytes consumed.
func ReadUnsigned(src []byte) (uint64, int, error) {
	var x uint64
	var s uint
	for i, b := range src {
		g := uint64(b & 0x7f)
		switch {
		case s < 63:
			x |= g << s
		case s == 63:
			if g > 1 {
				return 0, 0, ErrOverflow
			}
			x |= g << s
		default:
			if g != 0 {
				return 0, 0, ErrOverflow
			}
		}
		if b < 0x80 {
			return x, i + 1, nil
		}
		s += 7
	}
	return 0, 0, ErrUnexpectedEnd
}

// SizeSigned returns the number of bytes WriteSigned uses for n.
func SizeSigned(n int64) int {
	size := 1
	for {
		b := n & 0x7f
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			return size
		}
		size++
	}
}

// WriteSigned writes n to dst using the minimal number of groups and returns
// the number of bytes written.
func WriteSigned(dst []byte, n int64) int {
	i := 0
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			dst[i] = b
			return i + 1
		}
		dst[i] = b | 0x80
		i++
	}
}

// AppendSigned appends the encoding of n to dst.
func AppendSigned(dst []byte, n int64) []byte {
	var buf [10]byte
	w := WriteSigned(buf[:], n)
	return append(dst, buf[:w]...)
}

// ReadSigned decodes a signed value from the start of src, returning the
// value and the number of bytes consumed.
func ReadSigned(src []byte) (int64, int, error) {
	var x int64
	var s uint
	for i, b := range src {
		g := int64(b & 0x7f)
		switch {
		case s < 63:
			x |= g << s
		case s == 63:
			// only bit 63 is left, the rest of the group must extend it
			if g != 0 && g != 0x7f {
				return 0, 0, ErrOverflow
			}
			if g == 0x7f {
				x |= -1 << 63
			}
		default:
			want := int64(0)
			if x < 0 {
				want = 0x7f
			}
			if g != want {
				return 0, 0, ErrOverflow
			}
		}
		s += 7
		if b < 0x80 {
			if s < 64 && b&0x40 != 0 {
				x |= -1 << s
			}
			return x, i + 1, nil
		}
	}
	return 0, 0, ErrUnexpectedEnd
}

var low7 = big.NewInt(0x7f)

// SizeBigUnsigned returns the number of bytes WriteBigUnsigned uses for v,
// which must not be negative.
func SizeBigUnsigned(v *big.Int) int {
	if v.IsUint64() {
		return SizeUnsigned(v.Uint64())
	}
	return (v.BitLen() + 6) / 7
}

// AppendBigUnsigned appends the encoding of v, which must not be negative.
func AppendBigUnsigned(dst []byte, v *big.Int) []byte {
	if v.IsUint64() {
		return AppendUnsigned(dst, v.Uint64())
	}
	x := new(big.Int).Set(v)
	g := new(big.Int)
	for {
		g.And(x, low7)
		x.Rsh(x, 7)
		b := byte(g.Uint64())
		if x.Sign() == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// ReadBigUnsigned decodes an unsigned value of any size. Values that fit in
// 64 bits are built with SetUint64 so they compare equal to big.NewInt forms.
func ReadBigUnsigned(src []byte) (*big.Int, int, error) {
	n, err := groupLen(src)
	if err != nil {
		return nil, 0, err
	}
	if x, _, err := ReadUnsigned(src[:n]); err == nil {
		return new(big.Int).SetUint64(x), n, nil
	}
	return accumulate(src[:n]), n, nil
}

// SizeBigSigned returns the number of bytes AppendBigSigned uses for v.
func SizeBigSigned(v *big.Int) int {
	if v.IsInt64() {
		return SizeSigned(v.Int64())
	}
	x := new(big.Int).Set(v)
	g := new(big.Int)
	size := 0
	for {
		g.And(x, low7)
		x.Rsh(x, 7)
		size++
		if done(x, g.Uint64()) {
			return size
		}
	}
}

// AppendBigSigned appends the minimal signed encoding of v.
func AppendBigSigned(dst []byte, v *big.Int) []byte {
	if v.IsInt64() {
		return AppendSigned(dst, v.Int64())
	}
	x := new(big.Int).Set(v)
	g := new(big.Int)
	for {
		g.And(x, low7)
		x.Rsh(x, 7)
		b := byte(g.Uint64())
		if done(x, uint64(b)) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// ReadBigSigned decodes a signed value of any size.
func ReadBigSigned(src []byte) (*big.Int, int, error) {
	n, err := groupLen(src)
	if err != nil {
		return nil, 0, err
	}
	if x, _, err := ReadSigned(src[:n]); err == nil {
		return new(big.Int).SetInt64(x), n, nil
	}
	v := accumulate(src[:n])
	if src[n-1]&0x40 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(7*n)))
	}
	return v, n, nil
}

// done reports whether the remaining value x is pure sign extension of the
// group just emitted.
func done(x *big.Int, group uint64) bool {
	if x.Sign() == 0 {
		return group&0x40 == 0
	}
	return x.IsInt64() && x.Int64() == -1 && group&0x40 != 0
}

func groupLen(src []byte) (int, error) {
	for i, b := range src {
		if b < 0x80 {
			return i + 1, nil
		}
	}
	return 0, ErrUnexpectedEnd
}

func accumulate(groups []byte) *big.Int {
	v := new(big.Int)
	g := new(big.Int)
	for i := len(groups) - 1; i >= 0; i-- {
		v.Lsh(v, 7)
		v.Or(v, g.SetUint64(uint64(groups[i]&0x7f)))
	}
	return v
}
