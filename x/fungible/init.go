package fungible

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/gconf"
)

// GenesisAccount is an account registered when the token is deployed.
type GenesisAccount struct {
	Account weave.AccountID `json:"account"`
	Balance coin.Amount     `json:"balance"`
}

// Initializer deploys a token contract.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis saves the token configuration and registers all accounts
// listed under "accounts".
func (Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	conf := DefaultConfiguration()
	if err := gconf.InitConfigOrDefault(kv, opts, confPackage, &conf); err != nil {
		return errors.Wrap(err, "token configuration")
	}

	var accts []GenesisAccount
	if err := opts.ReadOptions("accounts", &accts); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot read token accounts: "+err.Error())
	}
	ledger := NewLedger()
	for i, a := range accts {
		if err := a.Account.Validate(); err != nil {
			return errors.Wrapf(err, "token account %d", i)
		}
		if err := ledger.Register(kv, a.Account); err != nil {
			return err
		}
		if err := ledger.Mint(kv, a.Account, a.Balance); err != nil {
			return err
		}
	}
	return nil
}
