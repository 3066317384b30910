package weave

import (
	"context"
	"testing"
	"time"

	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
)

func TestContextBlockTime(t *testing.T) {
	ctx := context.Background()
	if _, err := BlockTime(ctx); !errors.ErrHuman.Is(err) {
		t.Fatalf("want missing block time error, got %v", err)
	}

	now := time.Unix(1700000000, 42)
	ctx = WithBlockTime(ctx, now)
	got, err := BlockTime(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("want %s, got %s", now, got)
	}
	ts, err := BlockTimestamp(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if ts != 1700000000000000042 {
		t.Fatalf("unexpected timestamp %d", ts)
	}
}

func TestContextCallInfo(t *testing.T) {
	ctx := context.Background()
	if Predecessor(ctx) != "" || CurrentAccount(ctx) != "" {
		t.Fatal("empty context must not carry accounts")
	}
	if !AttachedDeposit(ctx).IsZero() {
		t.Fatal("empty context must not carry a deposit")
	}

	ctx = WithPredecessor(ctx, "alice")
	ctx = WithCurrentAccount(ctx, "escrow")
	ctx = WithAttachedDeposit(ctx, coin.NewAmount(7))
	if Predecessor(ctx) != "alice" || CurrentAccount(ctx) != "escrow" {
		t.Fatal("accounts not set")
	}
	if !AttachedDeposit(ctx).Equals(coin.NewAmount(7)) {
		t.Fatal("deposit not set")
	}
	if IsPrivateCall(ctx) {
		t.Fatal("call from alice is not private")
	}
	if !IsPrivateCall(WithPredecessor(ctx, "escrow")) {
		t.Fatal("call from the contract itself is private")
	}

	if _, ok := GetPromiseResult(ctx); ok {
		t.Fatal("no promise result expected")
	}
	ctx = WithPromiseResult(ctx, PromiseResult{Value: []byte{1}})
	res, ok := GetPromiseResult(ctx)
	if !ok || !res.Success() {
		t.Fatal("promise result not set")
	}
}
