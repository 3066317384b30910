package cash

import (
	"encoding/json"
	"testing"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest/assert"
)

func weaveAccount(s string) weave.AccountID {
	return weave.AccountID(s)
}

func TestGenesis(t *testing.T) {
	cases := map[string]struct {
		genesis string
		wantErr *errors.Error
		want    map[weave.AccountID]coin.Amount
	}{
		"no cash section": {
			genesis: `{}`,
		},
		"two accounts": {
			genesis: `{"cash": [
				{"account": "alice", "balance": "1250000000000000000000000"},
				{"account": "bob", "balance": 7}
			]}`,
			want: map[weave.AccountID]coin.Amount{
				"alice": coin.MustParseAmount("1250000000000000000000000"),
				"bob":   coin.NewAmount(7),
			},
		},
		"invalid account": {
			genesis: `{"cash": [{"account": "A", "balance": "1"}]}`,
			wantErr: errors.ErrInput,
		},
		"malformed balance": {
			genesis: `{"cash": [{"account": "alice", "balance": "-1"}]}`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts weave.Options
			assert.Nil(t, json.Unmarshal([]byte(tc.genesis), &opts))
			kv := store.MemStore()
			err := Initializer{}.FromGenesis(opts, weave.GenesisParams{ChainID: "test"}, kv)
			assert.IsErr(t, tc.wantErr, err)

			ctrl := NewController(NewBucket())
			for acct, want := range tc.want {
				got, err := ctrl.Balance(kv, acct)
				assert.Nil(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}
