package principal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/multiformats/go-base32"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const groupSize = 5

// String returns the textual form: lowercase base32 of a big endian CRC32 of
// the bytes followed by the bytes, split into dash separated groups of five.
func (p Principal) String() string {
	b := make([]byte, 4, 4+len(p.id))
	binary.BigEndian.PutUint32(b, crc32.ChecksumIEEE([]byte(p.id)))
	b = append(b, p.id...)
	s := strings.ToLower(encoding.EncodeToString(b))

	var sb strings.Builder
	for i := 0; i < len(s); i += groupSize {
		if i > 0 {
			sb.WriteByte('-')
		}
		end := min(i+groupSize, len(s))
		sb.WriteString(s[i:end])
	}
	return sb.String()
}

// Parse decodes the textual form of a principal and verifies its checksum.
func Parse(text string) (Principal, error) {
	s := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	b, err := encoding.DecodeString(s)
	if err != nil {
		return Principal{}, fmt.Errorf("decoding principal %q: %w", text, err)
	}
	if len(b) < 4 {
		return Principal{}, fmt.Errorf("decoding principal %q: missing checksum", text)
	}
	p, err := FromBytes(b[4:])
	if err != nil {
		return Principal{}, fmt.Errorf("decoding principal %q: %w", text, err)
	}
	if p.String() != strings.ToLower(text) {
		return Principal{}, fmt.Errorf("decoding principal %q: checksum or grouping mismatch, expected %s", text, p.String())
	}
	return p, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
