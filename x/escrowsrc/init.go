package escrowsrc

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/gconf"
	"github.com/htlcswap/weave/x/safetransfer"
)

// Initializer deploys a source escrow.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

func (Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	conf := DefaultConfiguration()
	if err := gconf.InitConfigOrDefault(kv, opts, confPackage, &conf); err != nil {
		return errors.Wrap(err, "escrowsrc configuration")
	}
	return safetransfer.InitConfig(kv, opts)
}
