package weavetest

import (
	"testing"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
)

func TestCallCtx(t *testing.T) {
	ctx := CallCtx(1234, "alice.test", "escrow.test", coin.NewAmount(3))
	ts, err := weave.BlockTimestamp(ctx)
	if err != nil {
		t.Fatalf("block time: %s", err)
	}
	if ts != 1234 {
		t.Fatalf("want 1234, got %d", ts)
	}
	if weave.Predecessor(ctx) != "alice.test" || weave.CurrentAccount(ctx) != "escrow.test" {
		t.Fatal("accounts not set")
	}
	if !weave.AttachedDeposit(ctx).Equals(coin.NewAmount(3)) {
		t.Fatal("deposit not set")
	}

	cb := CallbackCtx(1234, "escrow.test", weave.PromiseResult{Value: []byte("ok")})
	if !weave.IsPrivateCall(cb) {
		t.Fatal("callback must be a private call")
	}
	res, ok := weave.GetPromiseResult(cb)
	if !ok || string(res.Value) != "ok" {
		t.Fatalf("unexpected promise result: %+v", res)
	}
}
