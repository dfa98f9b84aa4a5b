package principal

import (
	"encoding/hex"
	"fmt"

	"github.com/storacha/go-candid/core/hash/sha224"
)

// MaxLength is the longest principal the network accepts.
const MaxLength = 29

// Tag bytes appended to principals that are not opaque ids.
const (
	// SelfAuthenticatingTag marks a principal derived from a public key.
	SelfAuthenticatingTag = 0x02
	// AnonymousTag is the single byte of the anonymous principal.
	AnonymousTag = 0x04
)

// Principal is an immutable byte identity. Principals are comparable and two
// principals are equal exactly when their bytes are equal.
type Principal struct {
	id string
}

// FromBytes creates a principal from its raw bytes.
func FromBytes(b []byte) (Principal, error) {
	if len(b) > MaxLength {
		return Principal{}, fmt.Errorf("principal too long: %d bytes, max %d", len(b), MaxLength)
	}
	return Principal{string(b)}, nil
}

// SelfAuthenticating derives the principal owned by a public key: the SHA-224
// digest of the key followed by SelfAuthenticatingTag.
func SelfAuthenticating(publicKey []byte) Principal {
	sum := sha224.Sum(publicKey)
	b := make([]byte, 0, sha224.Size+1)
	b = append(b, sum[:]...)
	b = append(b, SelfAuthenticatingTag)
	return Principal{string(b)}
}

// Anonymous is the principal of unauthenticated callers.
func Anonymous() Principal {
	return Principal{string([]byte{AnonymousTag})}
}

// Management is the empty principal addressing the management canister.
func Management() Principal {
	return Principal{}
}

// Bytes returns a copy of the raw principal bytes.
func (p Principal) Bytes() []byte {
	return []byte(p.id)
}

func (p Principal) Len() int {
	return len(p.id)
}

// IsSelfAuthenticating reports whether p carries the public key derivation
// tag.
func (p Principal) IsSelfAuthenticating() bool {
	return len(p.id) == sha224.Size+1 && p.id[len(p.id)-1] == SelfAuthenticatingTag
}

func (p Principal) IsAnonymous() bool {
	return p.id == string([]byte{AnonymousTag})
}

// Hex is the lowercase hex form of the raw bytes.
func (p Principal) Hex() string {
	return hex.EncodeToString([]byte(p.id))
}
