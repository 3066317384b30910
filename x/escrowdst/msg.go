package escrowdst

import (
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/x/swap"
)

const (
	pathDepositSafety  = "escrowdst/deposit_safety_amount"
	pathWithdraw       = "escrowdst/withdraw"
	pathPublicWithdraw = "escrowdst/public_withdraw"
	pathCancel         = "escrowdst/cancel"
	pathGetOrder       = "escrowdst/get_order"
	pathListOrders     = "escrowdst/list_orders"

	maxSecretSize = 1024
)

// DepositSafetyMsg attaches the destination safety deposit to a funded
// order. The deposit must equal DstSafetyDeposit.
type DepositSafetyMsg struct {
	Immutables swap.Immutables `json:"immutables"`
}

func (DepositSafetyMsg) Path() string {
	return pathDepositSafety
}

func (m *DepositSafetyMsg) Validate() error {
	return errors.Field("Immutables", m.Immutables.Validate(), "invalid")
}

// WithdrawMsg releases the taking tokens to the maker. Only the taker may
// call it, within the private withdrawal window.
type WithdrawMsg struct {
	Secret     string          `json:"secret"`
	Immutables swap.Immutables `json:"immutables"`
}

func (WithdrawMsg) Path() string {
	return pathWithdraw
}

func (m *WithdrawMsg) Validate() error {
	return validateSettle(m.Secret, &m.Immutables)
}

// PublicWithdrawMsg releases the taking tokens to the maker. Anyone may
// call it within the public withdrawal window.
type PublicWithdrawMsg struct {
	Secret     string          `json:"secret"`
	Immutables swap.Immutables `json:"immutables"`
}

func (PublicWithdrawMsg) Path() string {
	return pathPublicWithdraw
}

func (m *PublicWithdrawMsg) Validate() error {
	return validateSettle(m.Secret, &m.Immutables)
}

// CancelMsg returns the taking tokens to the taker after the destination
// cancellation deadline.
type CancelMsg struct {
	Immutables swap.Immutables `json:"immutables"`
}

func (CancelMsg) Path() string {
	return pathCancel
}

func (m *CancelMsg) Validate() error {
	return errors.Field("Immutables", m.Immutables.Validate(), "invalid")
}

// GetOrderMsg queries a resolver order by the hex hash of its immutables.
type GetOrderMsg struct {
	Hash string `json:"hash"`
}

func (GetOrderMsg) Path() string {
	return pathGetOrder
}

func (m *GetOrderMsg) Validate() error {
	if _, err := crypto.ParseHash(m.Hash); err != nil {
		return errors.Field("Hash", err, "invalid")
	}
	return nil
}

// ListOrdersMsg queries the hashes of the open resolver orders filling
// given maker order.
type ListOrdersMsg struct {
	RootHash string `json:"root_hash"`
}

func (ListOrdersMsg) Path() string {
	return pathListOrders
}

func (m *ListOrdersMsg) Validate() error {
	if _, err := crypto.ParseHash(m.RootHash); err != nil {
		return errors.Field("RootHash", err, "invalid")
	}
	return nil
}

func validateSettle(secret string, imm *swap.Immutables) error {
	var err error
	if secret == "" {
		err = errors.AppendField(err, "Secret", errors.ErrEmpty)
	} else if len(secret) > maxSecretSize {
		err = errors.AppendField(err, "Secret", errors.ErrInput)
	}
	return errors.AppendField(err, "Immutables", imm.Validate())
}
