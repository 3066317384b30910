/*
Package xswapd wires the contracts of the swap protocol into a chain
runtime. A chain deploys tokens with the "fungible" kind, source escrows
with "escrowsrc" and destination escrows with "escrowdst".
*/
package xswapd

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/app"
	"github.com/htlcswap/weave/x/escrowdst"
	"github.com/htlcswap/weave/x/escrowsrc"
	"github.com/htlcswap/weave/x/fungible"
	"github.com/tendermint/tendermint/libs/log"
)

// Names of the contract kinds, as used in the genesis file.
const (
	KindFungible  = "fungible"
	KindEscrowSrc = "escrowsrc"
	KindEscrowDst = "escrowdst"
)

// Kinds returns all contract kinds a chain can deploy.
func Kinds() []app.Kind {
	return []app.Kind{
		kind(KindFungible, fungible.RegisterRoutes, fungible.Initializer{}),
		kind(KindEscrowSrc, escrowsrc.RegisterRoutes, escrowsrc.Initializer{}),
		kind(KindEscrowDst, escrowdst.RegisterRoutes, escrowdst.Initializer{}),
	}
}

func kind(name string, register func(weave.Registry), init weave.Initializer) app.Kind {
	r := app.NewRouter()
	register(r)
	return app.Kind{Name: name, Router: r, Init: init}
}

// NewChain returns a runtime over db with all contract kinds registered.
func NewChain(db weave.CacheableKVStore, logger log.Logger) *app.Chain {
	return app.NewChain(db, logger, Kinds()...)
}
