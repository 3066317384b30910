package escrowdst

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/x/safetransfer"
)

// Initializer deploys a destination escrow. It has no configuration of its
// own beyond the safe transfer fees.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

func (Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	return safetransfer.InitConfig(kv, opts)
}
