package safetransfer

import (
	"context"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/x/fungible"
)

// RegisterRoutes registers the continuations of safe transfers. Every
// contract that calls Start must register them.
func RegisterRoutes(r weave.Registry) {
	h := ContinuationHandler{bucket: NewBucket()}
	r.Handle(&OnCheckStorageMsg{}, h)
	r.Handle(&OnStorageDepositMsg{}, h)
	r.Handle(&OnTransferMsg{}, h)
}

// Start begins a transfer of amount tokens to receiver. The returned
// receipt must be issued by the calling handler.
func Start(ctx context.Context, db weave.KVStore, token, receiver weave.AccountID, amount coin.Amount) (*weave.Receipt, error) {
	p := &PendingTransfer{
		Token:    token,
		Receiver: receiver,
		Amount:   amount,
		Stage:    StageCheckStorage,
	}
	if err := NewBucket().Create(db, p); err != nil {
		return nil, errors.Wrap(err, "safe transfer")
	}
	weave.GetLogger(ctx).Debug("safe transfer started",
		"id", p.ID, "token", token, "receiver", receiver, "amount", amount)
	query := &fungible.StorageBalanceOfMsg{AccountID: receiver}
	return weave.NewCall(token, query, coin.Zero, &OnCheckStorageMsg{TransferID: p.ID}), nil
}

// ContinuationHandler advances pending transfers. All its messages are
// callbacks and can only be called by the contract itself.
type ContinuationHandler struct {
	bucket Bucket
}

var _ weave.Handler = ContinuationHandler{}

func (h ContinuationHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h ContinuationHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, p, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res, ok := weave.GetPromiseResult(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrState, "no promise result")
	}
	logger := weave.GetLogger(ctx).With("transfer", p.ID, "token", p.Token, "receiver", p.Receiver)
	if !res.Success() {
		logger.Error("safe transfer failed", "stage", p.Stage, "err", res.Err)
		return nil, errors.Wrapf(errors.ErrPromise, "safe transfer %d at %s: %s", p.ID, p.Stage, res.Err)
	}

	f, err := loadFees(db)
	if err != nil {
		return nil, err
	}

	switch msg.(type) {
	case *OnCheckStorageMsg:
		if fungible.IsRegistered(res.Value) {
			return h.transfer(db, p, f)
		}
		p.Stage = StageStorageDeposit
		if err := h.bucket.Save(db, p); err != nil {
			return nil, err
		}
		logger.Debug("registering receiver", "fee", f.registration)
		register := &fungible.StorageDepositMsg{AccountID: p.Receiver}
		return &weave.DeliverResult{
			Receipts: []*weave.Receipt{
				weave.NewCall(p.Token, register, f.registration, &OnStorageDepositMsg{TransferID: p.ID}),
			},
		}, nil
	case *OnStorageDepositMsg:
		return h.transfer(db, p, f)
	case *OnTransferMsg:
		if err := h.bucket.Remove(db, p.ID); err != nil {
			return nil, err
		}
		logger.Info("safe transfer completed", "amount", p.Amount)
		return &weave.DeliverResult{}, nil
	}
	return nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
}

// transfer issues the token transfer of a pending transfer.
func (h ContinuationHandler) transfer(db weave.KVStore, p *PendingTransfer, f fees) (*weave.DeliverResult, error) {
	p.Stage = StageTransfer
	if err := h.bucket.Save(db, p); err != nil {
		return nil, err
	}
	send := &fungible.TransferMsg{ReceiverID: p.Receiver, Amount: p.Amount}
	return &weave.DeliverResult{
		Receipts: []*weave.Receipt{
			weave.NewCall(p.Token, send, f.transfer, &OnTransferMsg{TransferID: p.ID}),
		},
	}, nil
}

// validate returns the message together with the pending transfer it
// continues. The transfer must wait for the stage the message resolves.
func (h ContinuationHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (weave.Msg, *PendingTransfer, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid message")
	}
	if !weave.IsPrivateCall(ctx) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "private method")
	}

	var (
		id   uint64
		want Stage
	)
	switch m := msg.(type) {
	case *OnCheckStorageMsg:
		id, want = m.TransferID, StageCheckStorage
	case *OnStorageDepositMsg:
		id, want = m.TransferID, StageStorageDeposit
	case *OnTransferMsg:
		id, want = m.TransferID, StageTransfer
	default:
		return nil, nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
	}

	p, err := h.bucket.Get(db, id)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "transfer %d", id)
	}
	if p.Stage != want {
		return nil, nil, errors.Wrapf(errors.ErrState, "transfer %d waits for %s, not %s", id, p.Stage, want)
	}
	return msg, p, nil
}
