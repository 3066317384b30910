package weavetest

import (
	"context"
	"time"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
)

// BlockCtx returns a context with the block time set to given timestamp in
// nanoseconds since the Unix epoch.
func BlockCtx(ns uint64) context.Context {
	return weave.WithBlockTime(context.Background(), time.Unix(0, int64(ns)))
}

// CallCtx returns a context describing a call made by predecessor to the
// current contract at given block time, with deposit attached.
func CallCtx(ns uint64, predecessor, current weave.AccountID, deposit coin.Amount) context.Context {
	ctx := BlockCtx(ns)
	ctx = weave.WithPredecessor(ctx, predecessor)
	ctx = weave.WithCurrentAccount(ctx, current)
	return weave.WithAttachedDeposit(ctx, deposit)
}

// CallbackCtx returns a context for a continuation of the current contract
// carrying given promise result.
func CallbackCtx(ns uint64, current weave.AccountID, res weave.PromiseResult) context.Context {
	ctx := CallCtx(ns, current, current, coin.Zero)
	return weave.WithPromiseResult(ctx, res)
}
