// Package multiformat prefixes key material with its multicodec code so an
// encoded key says what it is.
package multiformat

import (
	"fmt"

	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
)

// TagSize is the number of bytes the tag for code occupies.
func TagSize(code uint64) int {
	return varint.UvarintSize(code)
}

func TagWith(code uint64, bytes []byte) []byte {
	offset := varint.UvarintSize(code)
	tagged := make([]byte, len(bytes)+offset)
	varint.PutUvarint(tagged, code)
	copy(tagged[offset:], bytes)
	return tagged
}

// UntagWith checks that source, from offset, starts with the tag for code and
// returns the bytes that follow it.
func UntagWith(code uint64, source []byte, offset int) ([]byte, error) {
	b := source[offset:]
	tag, n, err := varint.FromUvarint(b)
	if err != nil {
		return nil, fmt.Errorf("reading multicodec tag: %w", err)
	}
	if tag != code {
		return nil, fmt.Errorf("expected %s tag 0x%x instead got 0x%x", multicodec.Code(code), code, tag)
	}
	return b[n:], nil
}
