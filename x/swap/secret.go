package swap

import (
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
)

// HashSecret returns the hashlock of given secret, as lowercase hex without
// prefix.
func HashSecret(secret string) string {
	return crypto.Keccak256([]byte(secret)).Hex()
}

// ValidateSecret returns true if the secret hashes to given hashlock. A
// leading 0x on the hashlock is ignored, the rest must match exactly.
func ValidateSecret(secret, hashlock string) bool {
	return HashSecret(secret) == crypto.StripHexPrefix(hashlock)
}

// CheckSecret is ValidateSecret returning ErrUnauthorized on mismatch.
func CheckSecret(secret, hashlock string) error {
	if !ValidateSecret(secret, hashlock) {
		return errors.Wrap(errors.ErrUnauthorized, "invalid secret")
	}
	return nil
}
