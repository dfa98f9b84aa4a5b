package principal

// Signer holds a private key and can produce signatures that a remote party
// checks against the sender principal it derives from PublicKey.
type Signer interface {
	// Principal is the self-authenticating principal of the public key.
	Principal() Principal
	Code() uint64
	SignatureAlgorithm() string
	// Sign returns the raw signature over msg.
	Sign(msg []byte) []byte
	// PublicKey is the raw public key carried in request envelopes.
	PublicKey() []byte
	Verifier() Verifier
	Encode() []byte
}

type Verifier interface {
	Principal() Principal
	Code() uint64
	// Verify reports whether sig is a valid signature of msg by this key.
	Verify(msg []byte, sig []byte) bool
	// Raw is the public key without multicodec tag.
	Raw() []byte
	Encode() []byte
}
