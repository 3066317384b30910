package fungible

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
)

const (
	pathTransfer        = "fungible/ft_transfer"
	pathTransferCall    = "fungible/ft_transfer_call"
	pathOnTransfer      = "fungible/ft_on_transfer"
	pathResolveTransfer = "fungible/ft_resolve_transfer"
	pathStorageDeposit  = "fungible/storage_deposit"
	pathStorageBalance  = "fungible/storage_balance_of"
	pathBalanceOf       = "fungible/ft_balance_of"

	maxMemoSize = 128
	maxMsgSize  = 1 << 14
)

// TransferMsg moves tokens from the caller to the receiver. Exactly the
// configured transfer fee must be attached.
type TransferMsg struct {
	ReceiverID weave.AccountID `json:"receiver_id"`
	Amount     coin.Amount     `json:"amount"`
	Memo       string          `json:"memo,omitempty"`
}

func (TransferMsg) Path() string {
	return pathTransfer
}

func (m *TransferMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "ReceiverID", m.ReceiverID.Validate())
	if m.Amount.IsZero() {
		err = errors.AppendField(err, "Amount", errors.ErrAmount)
	}
	if len(m.Memo) > maxMemoSize {
		err = errors.AppendField(err, "Memo", errors.ErrInput)
	}
	return err
}

// TransferCallMsg moves tokens to a receiver contract and calls its
// ft_on_transfer hook with Msg.
type TransferCallMsg struct {
	ReceiverID weave.AccountID `json:"receiver_id"`
	Amount     coin.Amount     `json:"amount"`
	Memo       string          `json:"memo,omitempty"`
	Msg        string          `json:"msg"`
}

func (TransferCallMsg) Path() string {
	return pathTransferCall
}

func (m *TransferCallMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "ReceiverID", m.ReceiverID.Validate())
	if m.Amount.IsZero() {
		err = errors.AppendField(err, "Amount", errors.ErrAmount)
	}
	if len(m.Memo) > maxMemoSize {
		err = errors.AppendField(err, "Memo", errors.ErrInput)
	}
	if len(m.Msg) > maxMsgSize {
		err = errors.AppendField(err, "Msg", errors.ErrInput)
	}
	return err
}

// OnTransferMsg is delivered by a token to the receiver of a
// TransferCallMsg. The predecessor of the call is the token. The receiver
// returns the unused amount, encoded with EncodeAmount.
type OnTransferMsg struct {
	SenderID weave.AccountID `json:"sender_id"`
	Amount   coin.Amount     `json:"amount"`
	Msg      string          `json:"msg"`
}

func (OnTransferMsg) Path() string {
	return pathOnTransfer
}

func (m *OnTransferMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "SenderID", m.SenderID.Validate())
	if m.Amount.IsZero() {
		err = errors.AppendField(err, "Amount", errors.ErrAmount)
	}
	return err
}

// ResolveTransferMsg is the continuation of a TransferCallMsg. It can only
// be called by the token itself.
type ResolveTransferMsg struct {
	SenderID   weave.AccountID `json:"sender_id"`
	ReceiverID weave.AccountID `json:"receiver_id"`
	Amount     coin.Amount     `json:"amount"`
}

func (ResolveTransferMsg) Path() string {
	return pathResolveTransfer
}

func (m *ResolveTransferMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "SenderID", m.SenderID.Validate())
	err = errors.AppendField(err, "ReceiverID", m.ReceiverID.Validate())
	return err
}

// StorageDepositMsg registers an account with the token. When AccountID is
// empty the caller is registered.
type StorageDepositMsg struct {
	AccountID weave.AccountID `json:"account_id,omitempty"`
}

func (StorageDepositMsg) Path() string {
	return pathStorageDeposit
}

func (m *StorageDepositMsg) Validate() error {
	if m.AccountID == "" {
		return nil
	}
	return errors.Field("AccountID", m.AccountID.Validate(), "invalid")
}

// StorageBalanceOfMsg queries whether an account is registered. The result
// is a single byte: 1 when registered, 0 otherwise.
type StorageBalanceOfMsg struct {
	AccountID weave.AccountID `json:"account_id"`
}

func (StorageBalanceOfMsg) Path() string {
	return pathStorageBalance
}

func (m *StorageBalanceOfMsg) Validate() error {
	return errors.Field("AccountID", m.AccountID.Validate(), "invalid")
}

// BalanceOfMsg queries the token balance of an account. The result is
// encoded with EncodeAmount.
type BalanceOfMsg struct {
	AccountID weave.AccountID `json:"account_id"`
}

func (BalanceOfMsg) Path() string {
	return pathBalanceOf
}

func (m *BalanceOfMsg) Validate() error {
	return errors.Field("AccountID", m.AccountID.Validate(), "invalid")
}

// EncodeAmount returns the representation of an amount used as the result
// of a call.
func EncodeAmount(a coin.Amount) []byte {
	return []byte(a.String())
}

// DecodeAmount parses a call result created with EncodeAmount.
func DecodeAmount(raw []byte) (coin.Amount, error) {
	return coin.ParseAmount(string(raw))
}

// IsRegistered interprets the result of a StorageBalanceOfMsg call.
func IsRegistered(result []byte) bool {
	return len(result) == 1 && result[0] == 1
}
