package cash

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/orm"
)

// Controller is the functionality needed by the runtime to move native
// currency between accounts.
type Controller interface {
	Balance(db weave.ReadOnlyKVStore, account weave.AccountID) (coin.Amount, error)
	MoveCoins(db weave.KVStore, src, dest weave.AccountID, amount coin.Amount) error
	IssueCoins(db weave.KVStore, dest weave.AccountID, amount coin.Amount) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using given bucket to store wallets.
func NewController(bucket orm.ModelBucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the balance of given account. An unknown account has a
// zero balance.
func (c BaseController) Balance(db weave.ReadOnlyKVStore, account weave.AccountID) (coin.Amount, error) {
	var w Wallet
	switch err := c.bucket.One(db, []byte(account), &w); {
	case errors.ErrNotFound.Is(err):
		return coin.Zero, nil
	case err != nil:
		return coin.Zero, errors.Wrap(err, "cannot load wallet")
	}
	return w.Balance, nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't have sufficient coins, it fails.
// Moving a zero amount is a noop.
func (c BaseController) MoveCoins(db weave.KVStore, src, dest weave.AccountID, amount coin.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	have, err := c.Balance(db, src)
	if err != nil {
		return err
	}
	if have.LessThan(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s has %s, need %s", src, have, amount)
	}
	left, err := have.Sub(amount)
	if err != nil {
		return err
	}
	if err := c.bucket.Put(db, []byte(src), &Wallet{Balance: left}); err != nil {
		return errors.Wrap(err, "cannot save sender wallet")
	}
	return c.IssueCoins(db, dest, amount)
}

// IssueCoins attempts to add the given amount of coins to
// the destination account. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db weave.KVStore, dest weave.AccountID, amount coin.Amount) error {
	have, err := c.Balance(db, dest)
	if err != nil {
		return err
	}
	total, err := have.Add(amount)
	if err != nil {
		return errors.Wrapf(err, "wallet of %s", dest)
	}
	if err := c.bucket.Put(db, []byte(dest), &Wallet{Balance: total}); err != nil {
		return errors.Wrap(err, "cannot save recipient wallet")
	}
	return nil
}
