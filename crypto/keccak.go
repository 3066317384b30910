package crypto

import (
	"encoding/hex"
	"strings"

	"github.com/htlcswap/weave/errors"
	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a Keccak-256 digest in bytes.
const HashSize = 32

// Hash is a Keccak-256 digest.
type Hash [HashSize]byte

// Keccak256 returns the Keccak-256 digest of the concatenation of all given
// byte slices.
func Keccak256(data ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		// Write on a hash never returns an error.
		_, _ = h.Write(b)
	}
	var out Hash
	h.Sum(out[:0])
	return out
}

// Bytes returns the digest as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Hex returns the lowercase hex representation of the digest, without prefix.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// IsZero returns true if all bytes of the digest are zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler so that a hash is rendered as
// hex in JSON and YAML documents.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// ParseHash decodes a hex encoded digest. An optional 0x prefix is accepted.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(StripHexPrefix(s))
	if err != nil {
		return h, errors.Wrap(errors.ErrInput, err.Error())
	}
	return HashFromBytes(raw)
}

// HashFromBytes copies given digest bytes into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// StripHexPrefix removes a single leading "0x" or "0X" if present.
func StripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
