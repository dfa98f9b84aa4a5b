package helpers

import (
	crand "crypto/rand"
	"encoding/hex"

	"github.com/storacha/go-candid/principal"
)

// Must takes return values from a function and returns the non-error one. If
// the error value is non-nil then it panics.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

func RandomBytes(size int) []byte {
	bytes := make([]byte, size)
	_, _ = crand.Read(bytes)
	return bytes
}

// RandomPrincipal returns an opaque principal of the width canister ids use.
func RandomPrincipal() principal.Principal {
	return Must(principal.FromBytes(RandomBytes(10)))
}

// FromHex decodes a hex literal, panicking on malformed input.
func FromHex(s string) []byte {
	return Must(hex.DecodeString(s))
}
