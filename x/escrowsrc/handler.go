package escrowsrc

import (
	"context"
	"encoding/json"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/merkle"
	"github.com/htlcswap/weave/orm"
	"github.com/htlcswap/weave/x/fungible"
	"github.com/htlcswap/weave/x/safetransfer"
	"github.com/htlcswap/weave/x/swap"
)

// RegisterRoutes will instantiate and register all handlers of the source
// escrow, together with the safe transfer continuations it relies on.
func RegisterRoutes(r weave.Registry) {
	orders := NewOrderBucket()
	fills := NewFillBucket()

	r.Handle(&fungible.OnTransferMsg{}, FundHandler{orders})
	r.Handle(&CreateFillMsg{}, CreateFillHandler{orders, fills})
	settle := SettleHandler{orders, fills}
	r.Handle(&WithdrawMsg{}, settle)
	r.Handle(&WithdrawToMsg{}, settle)
	r.Handle(&PublicWithdrawMsg{}, settle)
	r.Handle(&CancelMsg{}, settle)
	r.Handle(&PublicCancelMsg{}, settle)
	r.Handle(&ReclaimMsg{}, ReclaimHandler{orders})
	q := QueryHandler{orders, fills}
	r.Handle(&GetOrderMsg{}, q)
	r.Handle(&GetFillMsg{}, q)
	r.Handle(&ListFillsMsg{}, q)
	safetransfer.RegisterRoutes(r)
}

//---- fund

// FundHandler accepts maker orders funded with ft_transfer_call. An order
// that cannot be accepted is not an error: the whole amount is returned to
// the token as unused, which refunds the maker.
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

	order, err := ParseOrderPayload(msg.Msg)
	if err != nil {
		return refundAll("invalid payload", "err", err)
	}
	if order.Maker != msg.SenderID {
		return refundAll("sender is not the maker", "maker", order.Maker)
	}
	if token := weave.Predecessor(ctx); order.Token != token {
		return refundAll("unexpected token", "token", token, "want", order.Token)
	}
	if msg.Amount.LessThan(order.TotalAmount) {
		return refundAll("insufficient amount", "total", order.TotalAmount)
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	ts, err := weave.BlockTimestamp(ctx)
	if err != nil {
		return nil, err
	}
	if deadline := ts + conf.ExpirationMargin; deadline < ts || order.Expiration < deadline {
		return refundAll("expiration is too close", "expiration", order.Expiration)
	}
	switch err := h.orders.Has(db, []byte(order.RootHash)); {
	case err == nil:
		return refundAll("order exists", "root_hash", order.RootHash)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	unused, err := msg.Amount.Sub(order.TotalAmount)
	if err != nil {
		return nil, err
	}
	if err := h.orders.Put(db, []byte(order.RootHash), order); err != nil {
		return nil, err
	}
	logger.Info("order funded", "root_hash", order.RootHash, "parts", order.Parts, "unused", unused)
	return &weave.DeliverResult{Data: fungible.EncodeAmount(unused)}, nil
}

//---- create fill

// CreateFillHandler commits a resolver to the next segment of an order.
type CreateFillHandler struct {
	orders orm.ModelBucket
	fills  orm.ModelBucket
}

var _ weave.Handler = CreateFillHandler{}

func (h CreateFillHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h CreateFillHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	imm := &msg.Immutables
	key := imm.Key()
	switch err := h.fills.Has(db, key); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "fill %s", key)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if err := h.fills.Put(db, key, &Fill{Immutables: *imm}); err != nil {
		return nil, err
	}
	if order.FilledAmount, err = order.FilledAmount.Add(imm.MakingAmount); err != nil {
		return nil, errors.Wrap(err, "filled amount")
	}
	if err := h.orders.Put(db, []byte(order.RootHash), order); err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("fill created",
		"fill", string(key), "root_hash", order.RootHash, "filled", order.FilledAmount, "taker", imm.Taker)
	return &weave.DeliverResult{Data: key}, nil
}

// validate returns the message and the order it fills once every check
// passed.
func (h CreateFillHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*CreateFillMsg, *MakerOrder, error) {
	var msg CreateFillMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	imm := &msg.Immutables

	if got := weave.AttachedDeposit(ctx); !got.Equals(imm.SrcSafetyDeposit) {
		return nil, nil, errors.Wrapf(errors.ErrAmount, "attached %s, safety deposit is %s", got, imm.SrcSafetyDeposit)
	}
	var order MakerOrder
	if err := h.orders.One(db, []byte(imm.OrderRootHash), &order); err != nil {
		return nil, nil, errors.Wrap(err, "order")
	}
	if swap.After(ctx, order.Expiration) {
		return nil, nil, errors.Wrapf(errors.ErrExpired, "order expired at %d", order.Expiration)
	}
	if imm.MakingToken != order.Token {
		return nil, nil, errors.Field("Immutables.MakingToken", errors.ErrInput, "order token is %s", order.Token)
	}
	if imm.Maker != order.Maker {
		return nil, nil, errors.Field("Immutables.Maker", errors.ErrInput, "order maker is %s", order.Maker)
	}
	if order.IsFilled() {
		return nil, nil, errors.Wrap(errors.ErrState, "order is filled")
	}
	filled, err := order.FilledAmount.Add(imm.MakingAmount)
	if err != nil {
		return nil, nil, errors.Wrap(err, "filled amount")
	}
	if filled.GreaterThan(order.TotalAmount) {
		return nil, nil, errors.Wrapf(errors.ErrAmount, "only %s left to fill", order.Remaining())
	}

	lock, err := imm.HashlockHash()
	if err != nil {
		return nil, nil, errors.Field("Immutables.Hashlock", err, "invalid")
	}
	if order.Parts == 1 {
		if !imm.MakingAmount.Equals(order.TotalAmount) {
			return nil, nil, errors.Wrapf(errors.ErrAmount, "single fill order must be filled with %s", order.TotalAmount)
		}
		root, err := crypto.ParseHash(order.RootHash)
		if err != nil {
			return nil, nil, errors.Wrap(err, "order root hash")
		}
		if lock != root {
			return nil, nil, errors.Field("Immutables.Hashlock", errors.ErrInput, "does not match the order")
		}
		return &msg, &order, nil
	}

	parts := uint16(order.Parts)
	ok, err := CompletesSegment(order.TotalAmount, order.FilledAmount, imm.MakingAmount, parts)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrAmount, "making amount does not complete the current segment")
	}
	idx, err := ValidIndex(order.TotalAmount, order.FilledAmount, imm.MakingAmount, parts)
	if err != nil {
		return nil, nil, err
	}
	if msg.Index != idx {
		return nil, nil, errors.Field("Index", errors.ErrInput, "want %d, got %d", idx, msg.Index)
	}
	if err := verifyProof(idx, lock, msg.Proof, order.RootHash); err != nil {
		return nil, nil, err
	}
	return &msg, &order, nil
}

func verifyProof(idx uint16, lock crypto.Hash, rawProof []string, rawRoot string) error {
	root, err := crypto.ParseHash(rawRoot)
	if err != nil {
		return errors.Wrap(err, "order root hash")
	}
	proof, err := merkle.ParseProof(rawProof)
	if err != nil {
		return errors.Field("Proof", err, "invalid")
	}
	if !merkle.Verify(merkle.Leaf(idx, lock), proof, root) {
		return errors.Field("Proof", errors.ErrInput, "invalid proof or hashlock")
	}
	return nil
}

//---- withdraw and cancel

// SettleHandler releases a fill. Withdrawals send the committed tokens to
// the taker, or the target of WithdrawToMsg, and require the secret.
// Cancellations send them back to the maker. The caller receives the
// safety deposit in every case.
type SettleHandler struct {
	orders orm.ModelBucket
	fills  orm.ModelBucket
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
	var fill Fill
	if err := h.fills.One(db, key, &fill); err != nil {
		return nil, errors.Wrap(err, "fill")
	}
	var order MakerOrder
	if err := h.orders.One(db, []byte(imm.OrderRootHash), &order); err != nil {
		return nil, errors.Wrap(errors.ErrState, "fill without order")
	}
	if err := h.fills.Delete(db, key); err != nil {
		return nil, err
	}
	if err := withdrawFromOrder(db, h.orders, &order, imm.MakingAmount); err != nil {
		return nil, err
	}

	send, err := safetransfer.Start(ctx, db, imm.MakingToken, recipient, imm.MakingAmount)
	if err != nil {
		return nil, err
	}
	res := &weave.DeliverResult{Data: key, Receipts: []*weave.Receipt{send}}
	caller := weave.Predecessor(ctx)
	if !imm.SrcSafetyDeposit.IsZero() {
		res.Receipts = append(res.Receipts, weave.NewTransfer(caller, imm.SrcSafetyDeposit))
	}
	weave.GetLogger(ctx).Info("fill settled",
		"fill", string(key), "recipient", recipient, "amount", imm.MakingAmount, "caller", caller)
	return res, nil
}

// validate checks the caller, the time window and the secret. It returns
// the immutables of the fill and the recipient of the committed tokens.
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
		if err := h.withdrawal(ctx, caller, imm, m.Secret); err != nil {
			return nil, "", err
		}
		return imm, imm.Taker, nil
	case *WithdrawToMsg:
		imm := &m.Immutables
		if err := h.withdrawal(ctx, caller, imm, m.Secret); err != nil {
			return nil, "", err
		}
		return imm, m.Target, nil
	case *PublicWithdrawMsg:
		imm := &m.Immutables
		tl := imm.TimeLock
		if err := swap.RequireWindow(ctx, "src public withdrawal", tl.SrcPublicWithdrawal, "src cancellation", tl.SrcCancellation); err != nil {
			return nil, "", err
		}
		if err := swap.CheckSecret(m.Secret, imm.Hashlock); err != nil {
			return nil, "", err
		}
		return imm, imm.Taker, nil
	case *CancelMsg:
		imm := &m.Immutables
		if caller != imm.Taker {
			return nil, "", errors.Wrap(errors.ErrUnauthorized, "only taker can cancel")
		}
		if err := swap.RequireAfter(ctx, "src cancellation", imm.TimeLock.SrcCancellation); err != nil {
			return nil, "", err
		}
		return imm, imm.Maker, nil
	case *PublicCancelMsg:
		imm := &m.Immutables
		if err := swap.RequireAfter(ctx, "src public cancellation", imm.TimeLock.SrcPublicCancellation); err != nil {
			return nil, "", err
		}
		return imm, imm.Maker, nil
	}
	return nil, "", errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
}

func (h SettleHandler) withdrawal(ctx context.Context, caller weave.AccountID, imm *swap.Immutables, secret string) error {
	if caller != imm.Taker {
		return errors.Wrap(errors.ErrUnauthorized, "only taker can withdraw")
	}
	tl := imm.TimeLock
	if err := swap.RequireWindow(ctx, "src withdrawal", tl.SrcWithdrawal, "src cancellation", tl.SrcCancellation); err != nil {
		return err
	}
	return swap.CheckSecret(secret, imm.Hashlock)
}

// withdrawFromOrder accounts amount as withdrawn from the order. A fully
// withdrawn order is deleted.
func withdrawFromOrder(db weave.KVStore, orders orm.ModelBucket, order *MakerOrder, amount coin.Amount) error {
	var err error
	if order.WithdrawnAmount, err = order.WithdrawnAmount.Add(amount); err != nil {
		return errors.Wrap(err, "withdrawn amount")
	}
	if order.WithdrawnAmount.Equals(order.TotalAmount) {
		return orders.Delete(db, []byte(order.RootHash))
	}
	return orders.Put(db, []byte(order.RootHash), order)
}

//---- reclaim

// ReclaimHandler returns the unfilled part of an expired order to the
// maker. No fill can be created afterwards.
type ReclaimHandler struct {
	orders orm.ModelBucket
}

var _ weave.Handler = ReclaimHandler{}

func (h ReclaimHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h ReclaimHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	remaining := order.Remaining()
	order.FilledAmount = order.TotalAmount
	if err := withdrawFromOrder(db, h.orders, order, remaining); err != nil {
		return nil, err
	}
	send, err := safetransfer.Start(ctx, db, order.Token, order.Maker, remaining)
	if err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("order reclaimed", "root_hash", order.RootHash, "amount", remaining)
	return &weave.DeliverResult{
		Data:     fungible.EncodeAmount(remaining),
		Receipts: []*weave.Receipt{send},
	}, nil
}

func (h ReclaimHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*MakerOrder, error) {
	var msg ReclaimMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	var order MakerOrder
	if err := h.orders.One(db, []byte(msg.RootHash), &order); err != nil {
		return nil, errors.Wrap(err, "order")
	}
	if weave.Predecessor(ctx) != order.Maker {
		return nil, errors.Wrap(errors.ErrUnauthorized, "only maker can reclaim")
	}
	if err := swap.RequireAfter(ctx, "order expiration", order.Expiration); err != nil {
		return nil, err
	}
	if order.IsFilled() {
		return nil, errors.Wrap(errors.ErrState, "nothing to reclaim")
	}
	return &order, nil
}

//---- queries

// QueryHandler answers read only queries with JSON encoded records.
type QueryHandler struct {
	orders orm.ModelBucket
	fills  orm.ModelBucket
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
		var order MakerOrder
		if err := h.orders.One(db, []byte(m.RootHash), &order); err != nil {
			return nil, err
		}
		res = &order
	case *GetFillMsg:
		var fill Fill
		if err := h.fills.One(db, []byte(crypto.StripHexPrefix(m.Hash)), &fill); err != nil {
			return nil, err
		}
		res = &fill.Immutables
	case *ListFillsMsg:
		keys, err := h.fills.ByIndex(db, "order", []byte(m.RootHash))
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
