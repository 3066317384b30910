package weave

import (
	"context"
	"time"

	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the weave module

const (
	contextKeyHeight contextKey = iota
	contextKeyBlockTime
	contextKeyChainID
	contextKeyLogger
	contextKeyPredecessor
	contextKeyCurrentAccount
	contextKeyAttachedDeposit
	contextKeyPromiseResult
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithHeight sets the block height for the context.
func WithHeight(ctx context.Context, height int64) context.Context {
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height.
func GetHeight(ctx context.Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the block time for the context. Block time is always
// represented in UTC.
func WithBlockTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyBlockTime, t.UTC())
}

// BlockTime returns current block time as set in the context or an error if
// block time is not present.
func BlockTime(ctx context.Context) (time.Time, error) {
	if t, ok := ctx.Value(contextKeyBlockTime).(time.Time); ok {
		return t, nil
	}
	return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
}

// BlockTimestamp returns the current block time as nanoseconds since the
// Unix epoch, the unit all deadlines are expressed in.
func BlockTimestamp(ctx context.Context) (uint64, error) {
	t, err := BlockTime(ctx)
	if err != nil {
		return 0, err
	}
	ns := t.UnixNano()
	if ns < 0 {
		return 0, errors.Wrap(errors.ErrState, "block time before epoch")
	}
	return uint64(ns), nil
}

// WithChainID sets the chain id for the context.
func WithChainID(ctx context.Context, chainID string) context.Context {
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id. Empty string if not set.
func GetChainID(ctx context.Context) string {
	val, _ := ctx.Value(contextKeyChainID).(string)
	return val
}

// WithLogger sets the logger for this context.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	if val, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return val
	}
	return DefaultLogger
}

// WithPredecessor sets the account that issued the current call.
func WithPredecessor(ctx context.Context, account AccountID) context.Context {
	return context.WithValue(ctx, contextKeyPredecessor, account)
}

// Predecessor returns the account that issued the current call. For a
// callback this is the contract itself.
func Predecessor(ctx context.Context) AccountID {
	val, _ := ctx.Value(contextKeyPredecessor).(AccountID)
	return val
}

// WithCurrentAccount sets the account of the contract being executed.
func WithCurrentAccount(ctx context.Context, account AccountID) context.Context {
	return context.WithValue(ctx, contextKeyCurrentAccount, account)
}

// CurrentAccount returns the account of the contract being executed.
func CurrentAccount(ctx context.Context) AccountID {
	val, _ := ctx.Value(contextKeyCurrentAccount).(AccountID)
	return val
}

// WithAttachedDeposit sets the native amount attached to the current call.
func WithAttachedDeposit(ctx context.Context, amount coin.Amount) context.Context {
	return context.WithValue(ctx, contextKeyAttachedDeposit, amount)
}

// AttachedDeposit returns the native amount attached to the current call.
// Zero if nothing was attached.
func AttachedDeposit(ctx context.Context) coin.Amount {
	val, _ := ctx.Value(contextKeyAttachedDeposit).(coin.Amount)
	return val
}

// WithPromiseResult sets the outcome of the receipt a callback is delivered
// for.
func WithPromiseResult(ctx context.Context, res PromiseResult) context.Context {
	return context.WithValue(ctx, contextKeyPromiseResult, res)
}

// GetPromiseResult returns the outcome of the receipt the current callback is
// delivered for. The second value is false outside of a callback.
func GetPromiseResult(ctx context.Context) (PromiseResult, bool) {
	val, ok := ctx.Value(contextKeyPromiseResult).(PromiseResult)
	return val, ok
}

// IsPrivateCall returns true if the current call was issued by the contract
// itself, which is the case for every callback.
func IsPrivateCall(ctx context.Context) bool {
	current := CurrentAccount(ctx)
	return current != "" && Predecessor(ctx) == current
}
