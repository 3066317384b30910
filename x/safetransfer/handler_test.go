package safetransfer

import (
	"encoding/json"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest"
	"github.com/htlcswap/weave/weavetest/assert"
	"github.com/htlcswap/weave/x/fungible"
	"github.com/stretchr/testify/require"
)

const (
	self  weave.AccountID = "escrow.test"
	token weave.AccountID = "token.test"
	now   uint64          = 1000
)

func newStore(t testing.TB) weave.CacheableKVStore {
	t.Helper()
	var opts weave.Options
	raw := `{"conf": {"safetransfer": {"registration_fee": "100", "transfer_fee": "1"}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &opts))
	kv := store.MemStore()
	require.NoError(t, InitConfig(kv, opts))
	return kv
}

func continueWith(t testing.TB, db weave.KVStore, msg weave.Msg, res weave.PromiseResult) (*weave.DeliverResult, error) {
	t.Helper()
	ctx := weavetest.CallbackCtx(now, self, res)
	return ContinuationHandler{bucket: NewBucket()}.Deliver(ctx, db, &weave.MsgTx{Msg: msg})
}

func stageOf(t testing.TB, db weave.ReadOnlyKVStore, id uint64) Stage {
	t.Helper()
	p, err := NewBucket().Get(db, id)
	require.NoError(t, err)
	return p.Stage
}

func TestStart(t *testing.T) {
	kv := newStore(t)
	ctx := weavetest.CallCtx(now, "bob", self, coin.Zero)

	r, err := Start(ctx, kv, token, "alice", coin.NewAmount(50))
	require.NoError(t, err)
	want := weave.NewCall(token, &fungible.StorageBalanceOfMsg{AccountID: "alice"}, coin.Zero, &OnCheckStorageMsg{TransferID: 1})
	assert.Equal(t, want, r)

	p, err := NewBucket().Get(kv, 1)
	require.NoError(t, err)
	assert.Equal(t, &PendingTransfer{
		ID:       1,
		Token:    token,
		Receiver: "alice",
		Amount:   coin.NewAmount(50),
		Stage:    StageCheckStorage,
	}, p)

	// every transfer gets its own record
	r, err = Start(ctx, kv, token, "carol", coin.NewAmount(1))
	require.NoError(t, err)
	assert.Equal(t, &OnCheckStorageMsg{TransferID: 2}, r.Callback)

	_, err = Start(ctx, kv, token, "carol", coin.Zero)
	assert.IsErr(t, errors.ErrAmount, err)
	_, err = Start(ctx, kv, token, "C", coin.NewAmount(1))
	assert.IsErr(t, errors.ErrInput, err)
}

func TestRegisteredReceiver(t *testing.T) {
	kv := newStore(t)
	_, err := Start(weavetest.BlockCtx(now), kv, token, "alice", coin.NewAmount(50))
	require.NoError(t, err)

	res, err := continueWith(t, kv, &OnCheckStorageMsg{TransferID: 1}, weave.PromiseResult{Value: []byte{1}})
	require.NoError(t, err)
	require.Len(t, res.Receipts, 1)
	send := &fungible.TransferMsg{ReceiverID: "alice", Amount: coin.NewAmount(50)}
	assert.Equal(t, weave.NewCall(token, send, coin.NewAmount(1), &OnTransferMsg{TransferID: 1}), res.Receipts[0])
	assert.Equal(t, StageTransfer, stageOf(t, kv, 1))

	_, err = continueWith(t, kv, &OnTransferMsg{TransferID: 1}, weave.PromiseResult{})
	require.NoError(t, err)
	_, err = NewBucket().Get(kv, 1)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestUnregisteredReceiver(t *testing.T) {
	kv := newStore(t)
	_, err := Start(weavetest.BlockCtx(now), kv, token, "alice", coin.NewAmount(50))
	require.NoError(t, err)

	res, err := continueWith(t, kv, &OnCheckStorageMsg{TransferID: 1}, weave.PromiseResult{Value: []byte{0}})
	require.NoError(t, err)
	require.Len(t, res.Receipts, 1)
	register := &fungible.StorageDepositMsg{AccountID: "alice"}
	assert.Equal(t, weave.NewCall(token, register, coin.NewAmount(100), &OnStorageDepositMsg{TransferID: 1}), res.Receipts[0])
	assert.Equal(t, StageStorageDeposit, stageOf(t, kv, 1))

	res, err = continueWith(t, kv, &OnStorageDepositMsg{TransferID: 1}, weave.PromiseResult{Value: []byte{1}})
	require.NoError(t, err)
	require.Len(t, res.Receipts, 1)
	assert.Equal(t, &OnTransferMsg{TransferID: 1}, res.Receipts[0].Callback)
	assert.Equal(t, StageTransfer, stageOf(t, kv, 1))
}

func TestContinuationErrors(t *testing.T) {
	cases := map[string]struct {
		// stage the pending transfer is moved to before the call
		stage   Stage
		private bool
		msg     weave.Msg
		result  weave.PromiseResult
		wantErr *errors.Error
	}{
		"failed registration check": {
			stage:   StageCheckStorage,
			private: true,
			msg:     &OnCheckStorageMsg{TransferID: 1},
			result:  weave.PromiseResult{Err: errors.ErrNotFound},
			wantErr: errors.ErrPromise,
		},
		"failed registration": {
			stage:   StageStorageDeposit,
			private: true,
			msg:     &OnStorageDepositMsg{TransferID: 1},
			result:  weave.PromiseResult{Err: errors.ErrInsufficientAmount},
			wantErr: errors.ErrPromise,
		},
		"failed transfer": {
			stage:   StageTransfer,
			private: true,
			msg:     &OnTransferMsg{TransferID: 1},
			result:  weave.PromiseResult{Err: errors.ErrAmount},
			wantErr: errors.ErrPromise,
		},
		"wrong stage": {
			stage:   StageCheckStorage,
			private: true,
			msg:     &OnTransferMsg{TransferID: 1},
			wantErr: errors.ErrState,
		},
		"unknown transfer": {
			stage:   StageCheckStorage,
			private: true,
			msg:     &OnCheckStorageMsg{TransferID: 7},
			wantErr: errors.ErrNotFound,
		},
		"missing id": {
			stage:   StageCheckStorage,
			private: true,
			msg:     &OnCheckStorageMsg{},
			wantErr: errors.ErrEmpty,
		},
		"public call": {
			stage:   StageCheckStorage,
			private: false,
			msg:     &OnCheckStorageMsg{TransferID: 1},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := newStore(t)
			_, err := Start(weavetest.BlockCtx(now), kv, token, "alice", coin.NewAmount(50))
			require.NoError(t, err)
			b := NewBucket()
			p, err := b.Get(kv, 1)
			require.NoError(t, err)
			p.Stage = tc.stage
			require.NoError(t, b.Save(kv, p))

			ctx := weavetest.CallbackCtx(now, self, tc.result)
			if !tc.private {
				ctx = weavetest.CallCtx(now, "mallory", self, coin.Zero)
			}
			_, err = ContinuationHandler{bucket: b}.Deliver(ctx, kv, &weave.MsgTx{Msg: tc.msg})
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestPendingTransferStorage(t *testing.T) {
	kv := store.MemStore()
	b := NewBucket()
	p := &PendingTransfer{
		Token:    token,
		Receiver: "alice",
		Amount:   coin.MustParseAmount("340282366920938463463374607431768211455"),
		Stage:    StageStorageDeposit,
	}
	require.NoError(t, b.Create(kv, p))
	assert.Equal(t, uint64(1), p.ID)
	got, err := b.Get(kv, 1)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	raw, err := proto.Marshal(p)
	require.NoError(t, err)
	var decoded PendingTransfer
	require.NoError(t, proto.Unmarshal(raw, &decoded))
	assert.Equal(t, p, &decoded)

	p.Stage = Stage(9)
	assert.IsErr(t, errors.ErrState, b.Save(kv, p))

	assert.Equal(t, "storage_deposit", StageStorageDeposit.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}

func TestConfiguration(t *testing.T) {
	cases := map[string]struct {
		conf    Configuration
		wantErr *errors.Error
	}{
		"default":           {conf: DefaultConfiguration()},
		"free registration": {conf: Configuration{RegistrationFee: "0", TransferFee: "1"}},
		"zero transfer fee": {conf: Configuration{RegistrationFee: "0", TransferFee: "0"}, wantErr: errors.ErrAmount},
		"malformed fee":     {conf: Configuration{RegistrationFee: "0x10", TransferFee: "1"}, wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, tc.conf.Validate())
		})
	}
}
