package weave

import (
	"context"
	"encoding/json"

	"github.com/htlcswap/weave/coin"
)

// Handler is a core engine that can process a few specific messages.
// This could represent "fund a maker order", or "withdraw a fill".
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction.
// Check must not modify the state.
type Checker interface {
	Check(ctx context.Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
type Deliverer interface {
	Deliver(ctx context.Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like recovery, logging or rollback. The decorator calls next to
// continue the chain.
type Decorator interface {
	Check(ctx context.Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx context.Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	Handle(m Msg, h Handler)
}

// CheckResult captures any non-error results of Check.
type CheckResult struct {
	// Data is a machine-parseable return value.
	Data []byte
	// Log is human-readable informational string.
	Log string
}

// DeliverResult captures any non-error results of Deliver.
type DeliverResult struct {
	// Data is a machine-parseable return value, like the id of a created
	// entity or the amount to refund by a funding hook.
	Data []byte
	// Log is human-readable informational string.
	Log string
	// Receipts are the calls issued by the handler. They are executed by
	// the runtime, in order, once the handler returns.
	Receipts []*Receipt
}

// Receipt is a call issued by a contract to another account. A receipt
// without a message is a plain native currency transfer of Deposit.
type Receipt struct {
	// Receiver is the account the receipt is delivered to.
	Receiver AccountID
	// Msg is the function call executed by the receiver. Nil for a plain
	// transfer.
	Msg Msg
	// Deposit is the native amount moved from the issuer to the receiver
	// together with the call. It is refunded to the issuer if the call
	// fails.
	Deposit coin.Amount
	// Callback, when not nil, is delivered back to the issuer once the
	// receipt is resolved, with the outcome available via
	// GetPromiseResult. Without a callback a failed receipt is fatal to the
	// issuing call.
	Callback Msg
}

// NewTransfer returns a receipt moving native currency to given account.
func NewTransfer(to AccountID, amount coin.Amount) *Receipt {
	return &Receipt{Receiver: to, Deposit: amount}
}

// NewCall returns a function call receipt.
func NewCall(to AccountID, msg Msg, deposit coin.Amount, callback Msg) *Receipt {
	return &Receipt{Receiver: to, Msg: msg, Deposit: deposit, Callback: callback}
}

// PromiseResult is the outcome of a resolved receipt, as observed by the
// callback of the issuer.
type PromiseResult struct {
	// Err is nil when the receipt succeeded.
	Err error
	// Value is the data returned by the receiver.
	Value []byte
}

// Success returns true if the receipt was executed successfully.
func (r PromiseResult) Success() bool {
	return r.Err == nil
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(opts Options, params GenesisParams, kv KVStore) error
}

// GenesisParams describes the chain being initialized.
type GenesisParams struct {
	ChainID string
}
