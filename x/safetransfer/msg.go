package safetransfer

import (
	"github.com/htlcswap/weave/errors"
)

const (
	pathOnCheckStorage   = "safetransfer/on_check_storage"
	pathOnStorageDeposit = "safetransfer/on_storage_deposit"
	pathOnTransfer       = "safetransfer/on_transfer"
)

// OnCheckStorageMsg continues a transfer once the registration status of
// the receiver is known.
type OnCheckStorageMsg struct {
	TransferID uint64 `json:"transfer_id"`
}

func (OnCheckStorageMsg) Path() string { return pathOnCheckStorage }
func (m *OnCheckStorageMsg) Validate() error {
	return validateID(m.TransferID)
}

// OnStorageDepositMsg continues a transfer once the receiver registration
// completed.
type OnStorageDepositMsg struct {
	TransferID uint64 `json:"transfer_id"`
}

func (OnStorageDepositMsg) Path() string { return pathOnStorageDeposit }
func (m *OnStorageDepositMsg) Validate() error {
	return validateID(m.TransferID)
}

// OnTransferMsg completes a transfer.
type OnTransferMsg struct {
	TransferID uint64 `json:"transfer_id"`
}

func (OnTransferMsg) Path() string { return pathOnTransfer }
func (m *OnTransferMsg) Validate() error {
	return validateID(m.TransferID)
}

func validateID(id uint64) error {
	if id == 0 {
		return errors.Field("TransferID", errors.ErrEmpty, "required")
	}
	return nil
}
