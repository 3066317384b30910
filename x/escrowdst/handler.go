package escrowdst

import (
	"context"
	"encoding/json"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/orm"
	"github.com/htlcswap/weave/x/fungible"
	"github.com/htlcswap/weave/x/safetransfer"
	"github.com/htlcswap/weave/x/swap"
)

// RegisterRoutes will instantiate and register all handlers of the
// destination escrow.
func RegisterRoutes(r weave.Registry) {
	orders := NewOrderBucket()

	r.Handle(&fungible.OnTransferMsg{}, FundHandler{orders})
	r.Handle(&DepositSafetyMsg{}, DepositSafetyHandler{orders})
	settle := SettleHandler{orders}
	r.Handle(&WithdrawMsg{}, settle)
	r.Handle(&PublicWithdrawMsg{}, settle)
	r.Handle(&CancelMsg{}, settle)
	q := QueryHandler{orders}
	r.Handle(&GetOrderMsg{}, q)
	r.Handle(&ListOrdersMsg{}, q)
	safetransfer.RegisterRoutes(r)
}

// FundHandler accepts resolver orders funded with ft_transfer_call. A
// rejected payload refunds the whole amount.
type FundHandler struct {
	orders orm.ModelBucket
}

var _ weave.Handler = FundHandler{}

func (h FundHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	var msg fungible.OnTransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &weave.CheckResult{}, nil
}

func (h FundHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	var msg fungible.OnTransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	logger := weave.GetLogger(ctx).With("sender", msg.SenderID, "amount", msg.Amount)
	refundAll := func(reason string, keyvals ...interface{}) (*weave.DeliverResult, error) {
		logger.Info("order rejected: "+reason, keyvals...)
		return &weave.DeliverResult{Data: fungible.EncodeAmount(msg.Amount), Log: reason}, nil
	}

	imm, err := swap.ParsePayload(msg.Msg)
	if err != nil {
		return refundAll("invalid payload", "err", err)
	}
	if imm.Taker != msg.SenderID {
		return refundAll("sender is not the taker", "taker", imm.Taker)
	}
	if token := weave.Predecessor(ctx); imm.TakingToken != token {
		return refundAll("unexpected token", "token", token, "want", imm.TakingToken)
	}
	if msg.Amount.LessThan(imm.TakingAmount) {
		return refundAll("insufficient amount", "taking", imm.TakingAmount)
	}
	key := imm.Key()
	switch err := h.orders.Has(db, key); {
	case err == nil:
		return refundAll("order exists", "order", string(key))
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	unused, err := msg.Amount.Sub(imm.TakingAmount)
	if err != nil {
		return nil, err
	}
	if err := h.orders.Put(db, key, &ResolverOrder{Immutables: *imm}); err != nil {
		return nil, err
	}
	logger.Info("order funded", "order", string(key), "unused", unused)
	return &weave.DeliverResult{Data: fungible.EncodeAmount(unused)}, nil
}

// DepositSafetyHandler attaches the destination safety deposit to a funded
// order. Anyone may pay it before the withdrawal window opens.
type DepositSafetyHandler struct {
	orders orm.ModelBucket
}

var _ weave.Handler = DepositSafetyHandler{}

func (h DepositSafetyHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h DepositSafetyHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	order.SafetyDeposit = order.DstSafetyDeposit
	key := order.Key()
	if err := h.orders.Put(db, key, order); err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("safety deposit attached",
		"order", string(key), "amount", order.SafetyDeposit, "payer", weave.Predecessor(ctx))
	return &weave.DeliverResult{Data: key}, nil
}

func (h DepositSafetyHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*ResolverOrder, error) {
	var msg DepositSafetyMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	imm := &msg.Immutables
	if err := swap.RequireBefore(ctx, "dst withdrawal", imm.TimeLock.DstWithdrawal); err != nil {
		return nil, err
	}
	if got := weave.AttachedDeposit(ctx); !got.Equals(imm.DstSafetyDeposit) {
		return nil, errors.Wrapf(errors.ErrAmount, "attached %s, safety deposit is %s", got, imm.DstSafetyDeposit)
	}
	var order ResolverOrder
	if err := h.orders.One(db, imm.Key(), &order); err != nil {
		return nil, errors.Wrap(err, "order")
	}
	if order.IsSecured() {
		return nil, errors.Wrap(errors.ErrState, "safety deposit already attached")
	}
	return &order, nil
}

// SettleHandler releases a resolver order. Withdrawals send the taking
// tokens to the maker and require the secret. Cancellation sends them back
// to the taker. The stored safety deposit, if any, goes to the caller.
type SettleHandler struct {
	orders orm.ModelBucket
}

var _ weave.Handler = SettleHandler{}

func (h SettleHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h SettleHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	imm, recipient, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	key := imm.Key()
	var order ResolverOrder
	if err := h.orders.One(db, key, &order); err != nil {
		return nil, errors.Wrap(err, "order")
	}
	if err := h.orders.Delete(db, key); err != nil {
		return nil, err
	}

	send, err := safetransfer.Start(ctx, db, order.TakingToken, recipient, order.TakingAmount)
	if err != nil {
		return nil, err
	}
	res := &weave.DeliverResult{Data: key, Receipts: []*weave.Receipt{send}}
	caller := weave.Predecessor(ctx)
	if order.IsSecured() {
		res.Receipts = append(res.Receipts, weave.NewTransfer(caller, order.SafetyDeposit))
	}
	weave.GetLogger(ctx).Info("order settled",
		"order", string(key), "recipient", recipient, "amount", order.TakingAmount,
		"caller", caller, "deposit", order.SafetyDeposit)
	return res, nil
}

// validate checks the caller, the time window and the secret. It returns
// the immutables of the order and the recipient of the taking tokens.
func (h SettleHandler) validate(ctx context.Context, tx weave.Tx) (*swap.Immutables, weave.AccountID, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, "", err
	}
	if err := msg.Validate(); err != nil {
		return nil, "", errors.Wrap(err, "invalid message")
	}
	caller := weave.Predecessor(ctx)

	switch m := msg.(type) {
	case *WithdrawMsg:
		imm := &m.Immutables
		if caller != imm.Taker {
			return nil, "", errors.Wrap(errors.ErrUnauthorized, "only taker can withdraw")
		}
		tl := imm.TimeLock
		if err := swap.RequireWindow(ctx, "dst withdrawal", tl.DstWithdrawal, "dst cancellation", tl.DstCancellation); err != nil {
			return nil, "", err
		}
		if err := swap.CheckSecret(m.Secret, imm.Hashlock); err != nil {
			return nil, "", err
		}
		return imm, imm.Maker, nil
	case *PublicWithdrawMsg:
		imm := &m.Immutables
		tl := imm.TimeLock
		if err := swap.RequireWindow(ctx, "dst public withdrawal", tl.DstPublicWithdrawal, "dst cancellation", tl.DstCancellation); err != nil {
			return nil, "", err
		}
		if err := swap.CheckSecret(m.Secret, imm.Hashlock); err != nil {
			return nil, "", err
		}
		return imm, imm.Maker, nil
	case *CancelMsg:
		imm := &m.Immutables
		if caller != imm.Taker {
			return nil, "", errors.Wrap(errors.ErrUnauthorized, "only taker can cancel")
		}
		if err := swap.RequireAfter(ctx, "dst cancellation", imm.TimeLock.DstCancellation); err != nil {
			return nil, "", err
		}
		return imm, imm.Taker, nil
	}
	return nil, "", errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
}

// QueryHandler answers read only queries with JSON encoded records.
type QueryHandler struct {
	orders orm.ModelBucket
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
	var res interface{}
	switch m := msg.(type) {
	case *GetOrderMsg:
		var order ResolverOrder
		if err := h.orders.One(db, []byte(crypto.StripHexPrefix(m.Hash)), &order); err != nil {
			return nil, err
		}
		res = &order
	case *ListOrdersMsg:
		keys, err := h.orders.ByIndex(db, "order", []byte(m.RootHash))
		if err != nil {
			return nil, err
		}
		hashes := make([]string, 0, len(keys))
		for _, k := range keys {
			hashes = append(hashes, string(k))
		}
		res = hashes
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return &weave.DeliverResult{Data: raw}, nil
}
