package cash

import (
	"testing"

	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCoins(t *testing.T) {
	kv := store.MemStore()
	ctrl := NewController(NewBucket())

	bal, err := ctrl.Balance(kv, "alice")
	require.NoError(t, err)
	require.True(t, bal.IsZero())

	require.NoError(t, ctrl.IssueCoins(kv, "alice", coin.NewAmount(500)))
	require.NoError(t, ctrl.IssueCoins(kv, "alice", coin.NewAmount(100)))
	bal, err = ctrl.Balance(kv, "alice")
	require.NoError(t, err)
	assert.Equal(t, coin.NewAmount(600), bal)

	// overflow is rejected
	err = ctrl.IssueCoins(kv, "alice", coin.MaxAmount)
	assert.IsErr(t, errors.ErrOverflow, err)
	bal, err = ctrl.Balance(kv, "alice")
	require.NoError(t, err)
	assert.Equal(t, coin.NewAmount(600), bal)
}

func TestMoveCoins(t *testing.T) {
	cases := map[string]struct {
		amount    coin.Amount
		dest      string
		wantErr   *errors.Error
		wantAlice coin.Amount
		wantBob   coin.Amount
	}{
		"move part": {
			amount:    coin.NewAmount(30),
			dest:      "bob",
			wantAlice: coin.NewAmount(70),
			wantBob:   coin.NewAmount(30),
		},
		"move everything": {
			amount:    coin.NewAmount(100),
			dest:      "bob",
			wantAlice: coin.Zero,
			wantBob:   coin.NewAmount(100),
		},
		"zero is a noop": {
			amount:    coin.Zero,
			dest:      "bob",
			wantAlice: coin.NewAmount(100),
			wantBob:   coin.Zero,
		},
		"insufficient funds": {
			amount:    coin.NewAmount(101),
			dest:      "bob",
			wantErr:   errors.ErrInsufficientAmount,
			wantAlice: coin.NewAmount(100),
			wantBob:   coin.Zero,
		},
		"invalid destination": {
			amount:    coin.NewAmount(1),
			dest:      "Bob!",
			wantErr:   errors.ErrInput,
			wantAlice: coin.NewAmount(100),
			wantBob:   coin.Zero,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := store.MemStore()
			ctrl := NewController(NewBucket())
			require.NoError(t, ctrl.IssueCoins(kv, "alice", coin.NewAmount(100)))

			err := ctrl.MoveCoins(kv, "alice", weaveAccount(tc.dest), tc.amount)
			assert.IsErr(t, tc.wantErr, err)

			alice, err := ctrl.Balance(kv, "alice")
			require.NoError(t, err)
			assert.Equal(t, tc.wantAlice, alice)
			bob, err := ctrl.Balance(kv, "bob")
			require.NoError(t, err)
			assert.Equal(t, tc.wantBob, bob)
		})
	}
}
