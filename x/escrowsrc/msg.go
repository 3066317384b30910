package escrowsrc

import (
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/x/swap"
)

const (
	pathCreateFill     = "escrowsrc/create_resolver_fill_order"
	pathWithdraw       = "escrowsrc/withdraw"
	pathWithdrawTo     = "escrowsrc/withdraw_to"
	pathPublicWithdraw = "escrowsrc/public_withdraw"
	pathCancel         = "escrowsrc/cancel"
	pathPublicCancel   = "escrowsrc/public_cancel"
	pathReclaim        = "escrowsrc/reclaim"
	pathGetOrder       = "escrowsrc/get_order"
	pathGetFill        = "escrowsrc/get_fill"
	pathListFills      = "escrowsrc/list_fills"

	maxProofSize  = 32
	maxSecretSize = 1024
)

// CreateFillMsg commits a resolver to a segment of a maker order. The
// source safety deposit must be attached. Index and Proof are required
// when the order has more than one part.
type CreateFillMsg struct {
	Immutables swap.Immutables `json:"immutables"`
	Index      uint16          `json:"idx,omitempty"`
	Proof      []string        `json:"merkle_proof,omitempty"`
}

func (CreateFillMsg) Path() string {
	return pathCreateFill
}

func (m *CreateFillMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "Immutables", m.Immutables.Validate())
	if len(m.Proof) > maxProofSize {
		err = errors.AppendField(err, "Proof", errors.Wrap(errors.ErrInput, "too long"))
	}
	for i, p := range m.Proof {
		if _, e := crypto.ParseHash(p); e != nil {
			err = errors.AppendField(err, "Proof", errors.Wrapf(e, "element %d", i))
		}
	}
	return err
}

// WithdrawMsg releases a fill to its taker. Only the taker may call it,
// within the private withdrawal window.
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

// WithdrawToMsg releases a fill to an account chosen by the taker.
type WithdrawToMsg struct {
	Secret     string          `json:"secret"`
	Target     weave.AccountID `json:"target"`
	Immutables swap.Immutables `json:"immutables"`
}

func (WithdrawToMsg) Path() string {
	return pathWithdrawTo
}

func (m *WithdrawToMsg) Validate() error {
	err := validateSettle(m.Secret, &m.Immutables)
	return errors.AppendField(err, "Target", m.Target.Validate())
}

// PublicWithdrawMsg releases a fill to its taker. Anyone may call it within
// the public withdrawal window and collects the safety deposit.
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

// CancelMsg returns a fill to the maker. Only the taker may call it, after
// the source cancellation deadline.
type CancelMsg struct {
	Immutables swap.Immutables `json:"immutables"`
}

func (CancelMsg) Path() string {
	return pathCancel
}

func (m *CancelMsg) Validate() error {
	return errors.Field("Immutables", m.Immutables.Validate(), "invalid")
}

// PublicCancelMsg returns a fill to the maker. Anyone may call it after the
// public cancellation deadline.
type PublicCancelMsg struct {
	Immutables swap.Immutables `json:"immutables"`
}

func (PublicCancelMsg) Path() string {
	return pathPublicCancel
}

func (m *PublicCancelMsg) Validate() error {
	return errors.Field("Immutables", m.Immutables.Validate(), "invalid")
}

// ReclaimMsg returns the unfilled part of an expired order to its maker.
type ReclaimMsg struct {
	RootHash string `json:"root_hash"`
}

func (ReclaimMsg) Path() string {
	return pathReclaim
}

func (m *ReclaimMsg) Validate() error {
	return validateRootHash(m.RootHash)
}

// GetOrderMsg queries a maker order. The result is the JSON encoded order.
type GetOrderMsg struct {
	RootHash string `json:"root_hash"`
}

func (GetOrderMsg) Path() string {
	return pathGetOrder
}

func (m *GetOrderMsg) Validate() error {
	return validateRootHash(m.RootHash)
}

// GetFillMsg queries a fill by the hex hash of its immutables. The result
// is the JSON encoded immutables.
type GetFillMsg struct {
	Hash string `json:"hash"`
}

func (GetFillMsg) Path() string {
	return pathGetFill
}

func (m *GetFillMsg) Validate() error {
	if _, err := crypto.ParseHash(m.Hash); err != nil {
		return errors.Field("Hash", err, "invalid")
	}
	return nil
}

// ListFillsMsg queries the hashes of the open fills of a maker order. The
// result is a JSON list of hex hashes.
type ListFillsMsg struct {
	RootHash string `json:"root_hash"`
}

func (ListFillsMsg) Path() string {
	return pathListFills
}

func (m *ListFillsMsg) Validate() error {
	return validateRootHash(m.RootHash)
}

func validateRootHash(h string) error {
	if _, err := crypto.ParseHash(h); err != nil {
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
