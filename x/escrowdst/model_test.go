package escrowdst

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest/assert"
)

func TestResolverOrderStorage(t *testing.T) {
	kv := store.MemStore()
	b := NewOrderBucket()
	o := ResolverOrder{Immutables: testImmutables(), SafetyDeposit: coin.NewAmount(2)}
	assert.Nil(t, b.Put(kv, o.Key(), &o))

	var got ResolverOrder
	assert.Nil(t, b.One(kv, o.Key(), &got))
	assert.Equal(t, o, got)
	assert.Equal(t, o.Key(), got.Key())

	keys, err := b.ByIndex(kv, "order", []byte(o.OrderRootHash))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{o.Key()}, keys)

	// Amounts above 64 bits survive the stored layout.
	o.TakingAmount = coin.MaxAmount
	raw, err := proto.Marshal(&o)
	assert.Nil(t, err)
	got = ResolverOrder{}
	assert.Nil(t, proto.Unmarshal(raw, &got))
	assert.Equal(t, o, got)
}

func TestResolverOrderValidate(t *testing.T) {
	cases := map[string]struct {
		deposit coin.Amount
		wantErr *errors.Error
	}{
		"no deposit":       {deposit: coin.Zero},
		"expected deposit": {deposit: coin.NewAmount(2)},
		"other deposit":    {deposit: coin.NewAmount(3), wantErr: errors.ErrAmount},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			o := ResolverOrder{Immutables: testImmutables(), SafetyDeposit: tc.deposit}
			assert.IsErr(t, tc.wantErr, o.Validate())
		})
	}
}
