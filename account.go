package weave

import (
	"regexp"

	"github.com/htlcswap/weave/errors"
)

const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
)

// isAccountID matches human readable account names made of lowercase
// alphanumeric parts joined by '-', '_' or '.', like "alice.near" or
// "token-x.ledger".
var isAccountID = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`).MatchString

// AccountID identifies an account on the ledger. Accounts hold native
// currency and may host a contract.
type AccountID string

// Validate returns an error if the account id is not well formed.
func (a AccountID) Validate() error {
	if a == "" {
		return errors.Wrap(errors.ErrEmpty, "account id")
	}
	if n := len(a); n < minAccountIDLen || n > maxAccountIDLen {
		return errors.Wrapf(errors.ErrInput, "account id length %d", n)
	}
	if !isAccountID(string(a)) {
		return errors.Wrapf(errors.ErrInput, "account id %q", string(a))
	}
	return nil
}

// String returns the account id as plain string.
func (a AccountID) String() string {
	return string(a)
}
