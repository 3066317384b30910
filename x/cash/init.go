package cash

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
type GenesisAccount struct {
	Account weave.AccountID `json:"account"`
	Balance coin.Amount     `json:"balance"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot read cash genesis: "+err.Error())
	}
	ctrl := NewController(NewBucket())
	for i, acct := range accts {
		if err := acct.Account.Validate(); err != nil {
			return errors.Wrapf(err, "cash account %d", i)
		}
		if err := ctrl.IssueCoins(kv, acct.Account, acct.Balance); err != nil {
			return errors.Wrapf(err, "cash account %s", acct.Account)
		}
	}
	return nil
}
