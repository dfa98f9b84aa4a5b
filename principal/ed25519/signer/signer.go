package signer

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/principal/ed25519/verifier"
	"github.com/storacha/go-candid/principal/multiformat"
)

const Code = uint64(multicodec.Ed25519Priv)
const Name = verifier.Name

const SignatureAlgorithm = verifier.SignatureAlgorithm

var privateTagSize = multiformat.TagSize(Code)
var publicTagSize = multiformat.TagSize(verifier.Code)

const keySize = 32

var size = privateTagSize + keySize + publicTagSize + keySize
var pubKeyOffset = privateTagSize + keySize

// Generate creates a signer from a random seed.
func Generate() (principal.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating Ed25519 key: %s", err)
	}
	return FromRaw(priv)
}

// FromSeed derives the keypair for a 32 byte seed.
func FromSeed(seed []byte) (principal.Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: %d wanted: %d", len(seed), ed25519.SeedSize)
	}
	return FromRaw(ed25519.NewKeyFromSeed(seed))
}

// FromRaw wraps a standard library private key.
func FromRaw(priv ed25519.PrivateKey) (principal.Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d wanted: %d", len(priv), ed25519.PrivateKeySize)
	}
	s := make(Ed25519Signer, 0, size)
	s = append(s, multiformat.TagWith(Code, priv.Seed())...)
	s = append(s, multiformat.TagWith(verifier.Code, priv.Public().(ed25519.PublicKey))...)
	return s, nil
}

// Parse decodes a multibase encoded signer, as produced by Format.
func Parse(str string) (principal.Signer, error) {
	_, bytes, err := multibase.Decode(str)
	if err != nil {
		return nil, fmt.Errorf("decoding multibase string: %s", err)
	}
	return Decode(bytes)
}

// Format encodes the signer as base64 multibase.
func Format(signer principal.Signer) (string, error) {
	return multibase.Encode(multibase.Base64pad, signer.Encode())
}

// Decode reads the multicodec tagged seed and public key, checking that the
// public key belongs to the seed.
func Decode(b []byte) (principal.Signer, error) {
	if len(b) != size {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), size)
	}

	seed, err := multiformat.UntagWith(Code, b[:pubKeyOffset], 0)
	if err != nil {
		return nil, fmt.Errorf("reading private key codec: %w", err)
	}

	v, err := verifier.Decode(b[pubKeyOffset:])
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	if !bytes.Equal(priv.Public().(ed25519.PublicKey), v.Raw()) {
		return nil, fmt.Errorf("public key does not match private key")
	}

	s := make(Ed25519Signer, size)
	copy(s, b)
	return s, nil
}

type Ed25519Signer []byte

func (s Ed25519Signer) Code() uint64 {
	return Code
}

func (s Ed25519Signer) SignatureAlgorithm() string {
	return SignatureAlgorithm
}

func (s Ed25519Signer) Verifier() principal.Verifier {
	return verifier.Ed25519Verifier(s[pubKeyOffset:])
}

func (s Ed25519Signer) Principal() principal.Principal {
	return principal.SelfAuthenticating(s.PublicKey())
}

func (s Ed25519Signer) PublicKey() []byte {
	return s[pubKeyOffset+publicTagSize:]
}

func (s Ed25519Signer) Encode() []byte {
	return s
}

// Raw returns the standard library form of the private key.
func (s Ed25519Signer) Raw() ed25519.PrivateKey {
	pk := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(pk[0:ed25519.SeedSize], s[privateTagSize:pubKeyOffset])
	copy(pk[ed25519.SeedSize:], s.PublicKey())
	return pk
}

// Sign produces a deterministic Ed25519 signature of msg.
func (s Ed25519Signer) Sign(msg []byte) []byte {
	return ed25519.Sign(s.Raw(), msg)
}
