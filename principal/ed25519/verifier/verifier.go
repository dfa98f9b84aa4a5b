package verifier

import (
	"crypto/ed25519"
	"fmt"

	"github.com/multiformats/go-multicodec"
	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/principal/multiformat"
)

const Code = uint64(multicodec.Ed25519Pub)
const Name = "Ed25519"

const SignatureAlgorithm = "EdDSA"

var size = multiformat.TagSize(Code) + ed25519.PublicKeySize

// FromRaw creates a verifier from a raw 32 byte public key, as carried in the
// sender_pubkey field of a request envelope.
func FromRaw(pub []byte) (principal.Verifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: %d wanted: %d", len(pub), ed25519.PublicKeySize)
	}
	return Ed25519Verifier(multiformat.TagWith(Code, pub)), nil
}

// Decode reads a multicodec tagged public key.
func Decode(b []byte) (principal.Verifier, error) {
	if len(b) != size {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), size)
	}
	if _, err := multiformat.UntagWith(Code, b, 0); err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	v := make(Ed25519Verifier, size)
	copy(v, b)
	return v, nil
}

type Ed25519Verifier []byte

func (v Ed25519Verifier) Code() uint64 {
	return Code
}

func (v Ed25519Verifier) Verify(msg []byte, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(v.Raw()), msg, sig)
}

func (v Ed25519Verifier) Principal() principal.Principal {
	return principal.SelfAuthenticating(v.Raw())
}

func (v Ed25519Verifier) Raw() []byte {
	return v[multiformat.TagSize(Code):]
}

func (v Ed25519Verifier) Encode() []byte {
	return v
}
