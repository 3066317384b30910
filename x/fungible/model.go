package fungible

import (
	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/orm"
)

// Account is a registered token holder.
type Account struct {
	Balance coin.Amount `protobuf:"bytes,1,opt,name=balance,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"balance"`
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Reset()         { *a = Account{} }
func (a *Account) String() string { return proto.CompactTextString(a) }
func (*Account) ProtoMessage()    {}

func (a *Account) Validate() error {
	return nil
}

// Ledger keeps the token balances of registered accounts.
type Ledger struct {
	bucket orm.ModelBucket
}

// NewLedger returns a ledger backed by the "ft_account" bucket.
func NewLedger() Ledger {
	return Ledger{bucket: orm.NewModelBucket("ft_account", &Account{})}
}

// IsRegistered returns true if the account can hold tokens.
func (l Ledger) IsRegistered(db weave.ReadOnlyKVStore, account weave.AccountID) (bool, error) {
	switch err := l.bucket.Has(db, []byte(account)); {
	case errors.ErrNotFound.Is(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Register creates an empty account. Registering twice fails with
// ErrDuplicate.
func (l Ledger) Register(db weave.KVStore, account weave.AccountID) error {
	ok, err := l.IsRegistered(db, account)
	if err != nil {
		return err
	}
	if ok {
		return errors.Wrapf(errors.ErrDuplicate, "%s is already registered", account)
	}
	return l.bucket.Put(db, []byte(account), &Account{})
}

// Balance returns the balance of a registered account.
func (l Ledger) Balance(db weave.ReadOnlyKVStore, account weave.AccountID) (coin.Amount, error) {
	var a Account
	if err := l.bucket.One(db, []byte(account), &a); err != nil {
		return coin.Zero, errors.Wrapf(err, "account %s", account)
	}
	return a.Balance, nil
}

// Mint adds tokens to a registered account.
func (l Ledger) Mint(db weave.KVStore, account weave.AccountID, amount coin.Amount) error {
	have, err := l.Balance(db, account)
	if err != nil {
		return err
	}
	total, err := have.Add(amount)
	if err != nil {
		return errors.Wrapf(err, "balance of %s", account)
	}
	return l.bucket.Put(db, []byte(account), &Account{Balance: total})
}

// Move transfers tokens between two registered accounts.
func (l Ledger) Move(db weave.KVStore, src, dest weave.AccountID, amount coin.Amount) error {
	if src == dest {
		return errors.Wrap(errors.ErrInput, "sender and receiver must differ")
	}
	have, err := l.Balance(db, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if _, err := l.Balance(db, dest); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if have.LessThan(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s has %s, need %s", src, have, amount)
	}
	left, err := have.Sub(amount)
	if err != nil {
		return err
	}
	if err := l.bucket.Put(db, []byte(src), &Account{Balance: left}); err != nil {
		return err
	}
	return l.Mint(db, dest, amount)
}
