package app

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/x/cash"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	contractKeyPrefix = "_contract:"
	blockKey          = "_block"
)

// Kind is a contract implementation that accounts can be deployed with.
type Kind struct {
	// Name identifies the kind in the genesis file.
	Name string
	// Router dispatches the messages of the contract.
	Router *Router
	// Init, when not nil, loads the contract state from genesis.
	Init weave.Initializer
}

// Chain is a deterministic ledger runtime hosting contracts. Each account
// is either a plain native currency holder or a contract of a registered
// kind with its own private keyspace.
//
// Calls are serialized. Within a call, receipts issued by a contract are
// executed one at a time, each as an independent call committed on its
// own, and the result is delivered to the issuer's callback. A failure
// aborts the issuer, discarding its pending state and refunding its
// attached deposit, but receipts that already committed stay committed.
type Chain struct {
	mu       sync.Mutex
	db       weave.CacheableKVStore
	logger   log.Logger
	kinds    map[string]Kind
	handlers map[string]weave.Handler
	cash     cash.Controller

	// open holds the accounts with a call in progress.
	open map[weave.AccountID]bool
}

// NewChain returns a runtime over given database. Registering two kinds
// with the same name panics.
func NewChain(db weave.CacheableKVStore, logger log.Logger, kinds ...Kind) *Chain {
	if logger == nil {
		logger = weave.DefaultLogger
	}
	c := &Chain{
		db:       db,
		logger:   logger,
		kinds:    make(map[string]Kind),
		handlers: make(map[string]weave.Handler),
		cash:     cash.NewController(cash.NewBucket()),
		open:     make(map[weave.AccountID]bool),
	}
	stack := ChainDecorators(NewLogging(), NewRecovery())
	for _, k := range kinds {
		if _, ok := c.kinds[k.Name]; ok {
			panic("duplicated contract kind: " + k.Name)
		}
		c.kinds[k.Name] = k
		c.handlers[k.Name] = stack.WithHandler(k.Router)
	}
	return c
}

// InitChain loads the genesis into an empty database.
func (c *Chain) InitChain(gen Genesis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.db.CacheWrap()
	defer base.Discard()

	if err := saveChainID(base, gen.ChainID); err != nil {
		return errors.Wrap(err, "chain id")
	}
	params := weave.GenesisParams{ChainID: gen.ChainID}
	if err := (cash.Initializer{}).FromGenesis(gen.AppState, params, base); err != nil {
		return errors.Wrap(err, "cash")
	}

	var contracts []GenesisContract
	if err := gen.AppState.ReadOptions("contracts", &contracts); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read contracts: %s", err)
	}
	for _, gc := range contracts {
		if err := c.deploy(base, gen.AppState, params, gc); err != nil {
			return errors.Wrapf(err, "contract %s", gc.Account)
		}
	}
	if err := base.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	c.logger.Info("chain initialized", "chain_id", gen.ChainID, "contracts", len(contracts))
	return nil
}

func (c *Chain) deploy(base weave.KVStore, global weave.Options, params weave.GenesisParams, gc GenesisContract) error {
	if err := gc.Account.Validate(); err != nil {
		return err
	}
	k, ok := c.kinds[gc.Kind]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "unknown contract kind %q", gc.Kind)
	}
	key := []byte(contractKeyPrefix + string(gc.Account))
	switch has, err := base.Has(key); {
	case err != nil:
		return err
	case has:
		return errors.Wrap(errors.ErrDuplicate, "contract already deployed")
	}
	if err := base.Set(key, []byte(k.Name)); err != nil {
		return err
	}
	if k.Init == nil {
		return nil
	}
	return k.Init.FromGenesis(contractInitOptions(global, gc), params, contractStore(base, gc.Account))
}

func contractStore(db weave.KVStore, account weave.AccountID) weave.KVStore {
	return store.NewPrefixStore(db, []byte("c:"+string(account)+":"))
}

// kindOf returns the kind of the contract deployed at given account.
func (c *Chain) kindOf(db weave.ReadOnlyKVStore, account weave.AccountID) (string, error) {
	raw, err := db.Get([]byte(contractKeyPrefix + string(account)))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", errors.Wrapf(errors.ErrNotFound, "no contract at %s", account)
	}
	return string(raw), nil
}

// BeginBlock advances the chain to the next block with given time. The
// time must not go back.
func (c *Chain) BeginBlock(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	height, prev, err := c.block()
	if err != nil {
		return err
	}
	if t.Before(prev) {
		return errors.Wrapf(errors.ErrInput, "block time %s before previous block %s", t, prev)
	}
	if t.UnixNano() < 0 {
		return errors.Wrap(errors.ErrInput, "block time before epoch")
	}
	raw := make([]byte, 16)
	binary.BigEndian.PutUint64(raw, uint64(height+1))
	binary.BigEndian.PutUint64(raw[8:], uint64(t.UnixNano()))
	return c.db.Set([]byte(blockKey), raw)
}

// block returns the height and time of the current block.
func (c *Chain) block() (int64, time.Time, error) {
	raw, err := c.db.Get([]byte(blockKey))
	if err != nil {
		return 0, time.Time{}, err
	}
	if raw == nil {
		return 0, time.Unix(0, 0).UTC(), nil
	}
	if len(raw) != 16 {
		return 0, time.Time{}, errors.Wrap(errors.ErrDatabase, "malformed block info")
	}
	height := int64(binary.BigEndian.Uint64(raw))
	t := time.Unix(0, int64(binary.BigEndian.Uint64(raw[8:]))).UTC()
	return height, t, nil
}

// Block returns the height and time of the current block.
func (c *Chain) Block() (int64, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block()
}

// ChainID returns the chain id set at genesis.
func (c *Chain) ChainID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return loadChainID(c.db)
}

func (c *Chain) blockContext(ctx context.Context) (context.Context, error) {
	height, t, err := c.block()
	if err != nil {
		return nil, err
	}
	chainID, err := loadChainID(c.db)
	if err != nil {
		return nil, err
	}
	ctx = weave.WithHeight(ctx, height)
	ctx = weave.WithBlockTime(ctx, t)
	ctx = weave.WithChainID(ctx, chainID)
	return weave.WithLogger(ctx, c.logger), nil
}

// Call executes msg on the contract deployed at to, on behalf of from, with
// deposit attached. The returned data is the value returned by the
// contract, after all its continuations.
//
// Effects of receipts that committed before a failure are kept even when
// the call itself fails.
func (c *Chain) Call(ctx context.Context, from, to weave.AccountID, msg weave.Msg, deposit coin.Amount) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := c.blockContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := from.Validate(); err != nil {
		return nil, errors.Wrap(err, "caller")
	}
	base := c.db.CacheWrap()
	data, err := c.execute(ctx, base, call{predecessor: from, receiver: to, msg: msg, deposit: deposit})
	if werr := base.Write(); werr != nil {
		return nil, errors.Wrap(errors.ErrDatabase, werr.Error())
	}
	return data, err
}

// Transfer moves native currency between two accounts.
func (c *Chain) Transfer(ctx context.Context, from, to weave.AccountID, amount coin.Amount) error {
	_, err := c.Call(ctx, from, to, nil, amount)
	return err
}

// Check validates msg against the current state without modifying it.
func (c *Chain) Check(ctx context.Context, from, to weave.AccountID, msg weave.Msg, deposit coin.Amount) error {
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "no message")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := c.blockContext(ctx)
	if err != nil {
		return err
	}
	base := c.db.CacheWrap()
	defer base.Discard()

	kind, err := c.kindOf(base, to)
	if err != nil {
		return err
	}
	cctx := callContext(ctx, call{predecessor: from, receiver: to, msg: msg, deposit: deposit})
	_, err = c.handlers[kind].Check(cctx, contractStore(base, to), &weave.MsgTx{Msg: msg})
	return err
}

// View executes a read only msg on the contract deployed at account. Any
// state change is discarded and issuing receipts is an error.
func (c *Chain) View(ctx context.Context, account weave.AccountID, msg weave.Msg) ([]byte, error) {
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := c.blockContext(ctx)
	if err != nil {
		return nil, err
	}
	base := c.db.CacheWrap()
	defer base.Discard()

	kind, err := c.kindOf(base, account)
	if err != nil {
		return nil, err
	}
	cctx := callContext(ctx, call{receiver: account, msg: msg})
	res, err := c.handlers[kind].Deliver(cctx, contractStore(base, account), &weave.MsgTx{Msg: msg})
	if err != nil {
		return nil, err
	}
	if len(res.Receipts) != 0 {
		return nil, errors.Wrapf(errors.ErrState, "view %q issued receipts", msg.Path())
	}
	return res.Data, nil
}

// Balance returns the native balance of an account.
func (c *Chain) Balance(account weave.AccountID) (coin.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cash.Balance(c.db, account)
}

// KindOf returns the kind of the contract deployed at account.
func (c *Chain) KindOf(account weave.AccountID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kindOf(c.db, account)
}

// DecodeMsg decodes a JSON message for the contract deployed at account.
func (c *Chain) DecodeMsg(account weave.AccountID, path string, raw []byte) (weave.Msg, error) {
	kind, err := c.KindOf(account)
	if err != nil {
		return nil, err
	}
	return c.kinds[kind].Router.DecodeMsg(path, raw)
}

type call struct {
	predecessor weave.AccountID
	receiver    weave.AccountID
	msg         weave.Msg
	deposit     coin.Amount
}

func callContext(ctx context.Context, cl call) context.Context {
	ctx = weave.WithPredecessor(ctx, cl.predecessor)
	ctx = weave.WithCurrentAccount(ctx, cl.receiver)
	ctx = weave.WithAttachedDeposit(ctx, cl.deposit)
	return weave.WithLogInfo(ctx, "contract", cl.receiver, "path", cl.msg.Path())
}

// execute runs a single call on top of base. On success all effects are
// written to base. On failure only the effects of receipts that already
// completed remain and the attached deposit is returned.
func (c *Chain) execute(ctx context.Context, base weave.KVCacheWrap, cl call) ([]byte, error) {
	logger := weave.GetLogger(ctx).With("receiver", cl.receiver, "predecessor", cl.predecessor)

	if cl.msg == nil {
		frame := base.CacheWrap()
		if err := c.cash.MoveCoins(frame, cl.predecessor, cl.receiver, cl.deposit); err != nil {
			frame.Discard()
			return nil, err
		}
		logger.Debug("transfer", "amount", cl.deposit)
		return nil, frame.Write()
	}

	kind, err := c.kindOf(base, cl.receiver)
	if err != nil {
		return nil, err
	}
	if c.open[cl.receiver] {
		return nil, errors.Wrapf(errors.ErrState, "reentrant call to %s", cl.receiver)
	}
	if err := c.cash.MoveCoins(base, cl.predecessor, cl.receiver, cl.deposit); err != nil {
		return nil, errors.Wrap(err, "attached deposit")
	}

	logger.Debug("call", "path", cl.msg.Path(), "deposit", cl.deposit)
	frame := base.CacheWrap()
	c.open[cl.receiver] = true
	data, err := c.run(ctx, base, frame, kind, cl)
	delete(c.open, cl.receiver)

	if err != nil {
		frame.Discard()
		logger.Info("call aborted", "path", cl.msg.Path(), "err", err)
		if !cl.deposit.IsZero() {
			if rerr := c.cash.MoveCoins(base, cl.receiver, cl.predecessor, cl.deposit); rerr != nil {
				logger.Error("cannot refund deposit", "amount", cl.deposit, "err", rerr)
			} else {
				logger.Info("deposit refunded", "amount", cl.deposit)
			}
		}
		return nil, err
	}
	if err := frame.Write(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return data, nil
}

// run delivers the message to the contract and resolves all receipts it
// issued. Contract state is kept in frame, receipts are executed on base.
func (c *Chain) run(ctx context.Context, base, frame weave.KVCacheWrap, kind string, cl call) ([]byte, error) {
	db := contractStore(frame, cl.receiver)
	res, err := c.handlers[kind].Deliver(callContext(ctx, cl), db, &weave.MsgTx{Msg: cl.msg})
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, base, frame, kind, cl.receiver, res)
}

func (c *Chain) resolve(ctx context.Context, base, frame weave.KVCacheWrap, kind string, self weave.AccountID, res *weave.DeliverResult) ([]byte, error) {
	data := res.Data
	for _, r := range res.Receipts {
		result := c.await(ctx, base, self, r)
		if r.Callback == nil {
			if !result.Success() {
				return nil, errors.Wrapf(errors.ErrPromise, "receipt to %s: %s", r.Receiver, result.Err)
			}
			continue
		}

		cb := call{predecessor: self, receiver: self, msg: r.Callback}
		cctx := weave.WithPromiseResult(callContext(ctx, cb), result)
		weave.GetLogger(cctx).Debug("callback", "success", result.Success())
		cbres, err := c.handlers[kind].Deliver(cctx, contractStore(frame, self), &weave.MsgTx{Msg: r.Callback})
		if err != nil {
			return nil, err
		}
		data, err = c.resolve(ctx, base, frame, kind, self, cbres)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// await executes a receipt as an independent call and blocks until its
// result is known.
func (c *Chain) await(ctx context.Context, base weave.KVCacheWrap, issuer weave.AccountID, r *weave.Receipt) weave.PromiseResult {
	done := make(chan weave.PromiseResult, 1)
	go func() {
		var res weave.PromiseResult
		defer func() { done <- res }()
		defer errors.Recover(&res.Err)
		res.Value, res.Err = c.execute(ctx, base, call{
			predecessor: issuer,
			receiver:    r.Receiver,
			msg:         r.Msg,
			deposit:     r.Deposit,
		})
	}()
	return <-done
}
