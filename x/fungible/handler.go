package fungible

import (
	"context"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
)

// RegisterRoutes will instantiate and register all handlers of the token
// contract.
func RegisterRoutes(r weave.Registry) {
	ledger := NewLedger()
	r.Handle(&TransferMsg{}, TransferHandler{ledger})
	r.Handle(&TransferCallMsg{}, TransferCallHandler{ledger})
	r.Handle(&ResolveTransferMsg{}, ResolveTransferHandler{ledger})
	r.Handle(&StorageDepositMsg{}, StorageDepositHandler{ledger})
	q := QueryHandler{ledger}
	r.Handle(&StorageBalanceOfMsg{}, q)
	r.Handle(&BalanceOfMsg{}, q)
}

// requireTransferFee ensures that exactly the transfer fee is attached.
func requireTransferFee(ctx context.Context, db weave.KVStore) error {
	f, err := loadFees(db)
	if err != nil {
		return err
	}
	if got := weave.AttachedDeposit(ctx); !got.Equals(f.transfer) {
		return errors.Wrapf(errors.ErrAmount, "attached %s, transfer requires exactly %s", got, f.transfer)
	}
	return nil
}

// TransferHandler moves tokens between registered accounts.
type TransferHandler struct {
	ledger Ledger
}

var _ weave.Handler = TransferHandler{}

func (h TransferHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h TransferHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	sender := weave.Predecessor(ctx)
	if err := h.ledger.Move(db, sender, msg.ReceiverID, msg.Amount); err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("ft transfer", "from", sender, "to", msg.ReceiverID, "amount", msg.Amount)
	return &weave.DeliverResult{Log: msg.Memo}, nil
}

func (h TransferHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*TransferMsg, error) {
	var msg TransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireTransferFee(ctx, db); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransferCallHandler moves tokens to a receiver contract and notifies it.
// The receiver decides how much of the transferred amount it keeps. The
// rest is returned to the sender by ResolveTransferHandler.
type TransferCallHandler struct {
	ledger Ledger
}

var _ weave.Handler = TransferCallHandler{}

func (h TransferCallHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h TransferCallHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	sender := weave.Predecessor(ctx)
	if err := h.ledger.Move(db, sender, msg.ReceiverID, msg.Amount); err != nil {
		return nil, err
	}
	notify := &OnTransferMsg{SenderID: sender, Amount: msg.Amount, Msg: msg.Msg}
	resolve := &ResolveTransferMsg{SenderID: sender, ReceiverID: msg.ReceiverID, Amount: msg.Amount}
	return &weave.DeliverResult{
		Log:      msg.Memo,
		Receipts: []*weave.Receipt{weave.NewCall(msg.ReceiverID, notify, coin.Zero, resolve)},
	}, nil
}

func (h TransferCallHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*TransferCallMsg, error) {
	var msg TransferCallMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireTransferFee(ctx, db); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ResolveTransferHandler returns the unused part of a transfer call to the
// sender. The result is the amount the receiver kept.
type ResolveTransferHandler struct {
	ledger Ledger
}

var _ weave.Handler = ResolveTransferHandler{}

func (h ResolveTransferHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h ResolveTransferHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}

	unused := msg.Amount
	if res, ok := weave.GetPromiseResult(ctx); ok && res.Success() {
		if returned, err := DecodeAmount(res.Value); err == nil && returned.LessThan(unused) {
			unused = returned
		}
	}
	if !unused.IsZero() {
		have, err := h.ledger.Balance(db, msg.ReceiverID)
		if err != nil {
			return nil, err
		}
		if have.LessThan(unused) {
			unused = have
		}
	}
	if !unused.IsZero() {
		if err := h.ledger.Move(db, msg.ReceiverID, msg.SenderID, unused); err != nil {
			return nil, errors.Wrap(err, "refund")
		}
	}
	used, err := msg.Amount.Sub(unused)
	if err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("ft transfer resolved", "receiver", msg.ReceiverID, "used", used, "refund", unused)
	return &weave.DeliverResult{Data: EncodeAmount(used)}, nil
}

func (h ResolveTransferHandler) validate(ctx context.Context, tx weave.Tx) (*ResolveTransferMsg, error) {
	var msg ResolveTransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !weave.IsPrivateCall(ctx) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "private method")
	}
	return &msg, nil
}

// StorageDepositHandler registers an account. The attached deposit must
// cover the storage fee, any excess is returned. Registering an already
// registered account returns the whole deposit.
type StorageDepositHandler struct {
	ledger Ledger
}

var _ weave.Handler = StorageDepositHandler{}

func (h StorageDepositHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	var msg StorageDepositMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &weave.CheckResult{}, nil
}

func (h StorageDepositHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	var msg StorageDepositMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller := weave.Predecessor(ctx)
	account := msg.AccountID
	if account == "" {
		account = caller
	}
	deposit := weave.AttachedDeposit(ctx)

	registered, err := h.ledger.IsRegistered(db, account)
	if err != nil {
		return nil, err
	}
	refund := deposit
	if !registered {
		f, err := loadFees(db)
		if err != nil {
			return nil, err
		}
		if deposit.LessThan(f.storage) {
			return nil, errors.Wrapf(errors.ErrInsufficientAmount, "storage fee is %s, attached %s", f.storage, deposit)
		}
		if err := h.ledger.Register(db, account); err != nil {
			return nil, err
		}
		if refund, err = deposit.Sub(f.storage); err != nil {
			return nil, err
		}
		weave.GetLogger(ctx).Info("account registered", "account", account)
	}

	res := &weave.DeliverResult{Data: []byte{1}}
	if !refund.IsZero() {
		res.Receipts = append(res.Receipts, weave.NewTransfer(caller, refund))
	}
	return res, nil
}

// QueryHandler answers read only token queries.
type QueryHandler struct {
	ledger Ledger
}

var _ weave.Handler = QueryHandler{}

func (h QueryHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, msg.Validate()
}

func (h QueryHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *StorageBalanceOfMsg:
		ok, err := h.ledger.IsRegistered(db, m.AccountID)
		if err != nil {
			return nil, err
		}
		if ok {
			return &weave.DeliverResult{Data: []byte{1}}, nil
		}
		return &weave.DeliverResult{Data: []byte{0}}, nil
	case *BalanceOfMsg:
		ok, err := h.ledger.IsRegistered(db, m.AccountID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &weave.DeliverResult{Data: EncodeAmount(coin.Zero)}, nil
		}
		bal, err := h.ledger.Balance(db, m.AccountID)
		if err != nil {
			return nil, err
		}
		return &weave.DeliverResult{Data: EncodeAmount(bal)}, nil
	}
	return nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
}
