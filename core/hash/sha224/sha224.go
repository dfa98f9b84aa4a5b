package sha224

import (
	"crypto/sha256"

	"github.com/multiformats/go-multihash"
	"github.com/storacha/go-candid/core/hash"
)

// sha2-224
const Code = 0x1013

// sha2-224 hash has a 28-byte sum
const Size = sha256.Size224

type hasher struct{}

func (hasher) Code() uint64 {
	return Code
}

func (hasher) Size() uint64 {
	return Size
}

func (hasher) Sum(b []byte) (hash.Digest, error) {
	sum := sha256.Sum224(b)
	d, err := multihash.Encode(sum[:], Code)
	if err != nil {
		return nil, err
	}
	return hash.NewDigest(Code, Size, sum[:], d), nil
}

var Hasher = hasher{}

// Sum returns the 28 byte digest self-authenticating principals are derived
// from.
func Sum(b []byte) [Size]byte {
	return sha256.Sum224(b)
}
