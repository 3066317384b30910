package swap

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/codec"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
)

// maxSaltSize limits the salt so that a payload stays reasonably small.
const maxSaltSize = 256

// TimeLock holds the seven deadlines of a commitment, in nanoseconds since
// the Unix epoch.
type TimeLock struct {
	SrcWithdrawal         uint64 `protobuf:"varint,1,opt,name=src_withdrawal,proto3" json:"src_withdrawal" yaml:"src_withdrawal"`
	SrcPublicWithdrawal   uint64 `protobuf:"varint,2,opt,name=src_public_withdrawal,proto3" json:"src_public_withdrawal" yaml:"src_public_withdrawal"`
	SrcCancellation       uint64 `protobuf:"varint,3,opt,name=src_cancellation,proto3" json:"src_cancellation" yaml:"src_cancellation"`
	SrcPublicCancellation uint64 `protobuf:"varint,4,opt,name=src_public_cancellation,proto3" json:"src_public_cancellation" yaml:"src_public_cancellation"`
	DstWithdrawal         uint64 `protobuf:"varint,5,opt,name=dst_withdrawal,proto3" json:"dst_withdrawal" yaml:"dst_withdrawal"`
	DstPublicWithdrawal   uint64 `protobuf:"varint,6,opt,name=dst_public_withdrawal,proto3" json:"dst_public_withdrawal" yaml:"dst_public_withdrawal"`
	DstCancellation       uint64 `protobuf:"varint,7,opt,name=dst_cancellation,proto3" json:"dst_cancellation" yaml:"dst_cancellation"`
}

func (t TimeLock) fields() [7]uint64 {
	return [7]uint64{
		t.SrcWithdrawal,
		t.SrcPublicWithdrawal,
		t.SrcCancellation,
		t.SrcPublicCancellation,
		t.DstWithdrawal,
		t.DstPublicWithdrawal,
		t.DstCancellation,
	}
}

// Validate ensures the destination side resolves before the source side can
// be cancelled.
func (t TimeLock) Validate() error {
	if t.DstCancellation >= t.SrcCancellation {
		return errors.Wrapf(errors.ErrState,
			"destination cancellation %d must be before source cancellation %d",
			t.DstCancellation, t.SrcCancellation)
	}
	return nil
}

// Immutables are the parameters of a single resolver commitment. Once
// created they never change and their hash is the key of the escrow records
// on both sides. Payloads carry the borsh layout of the fields in
// declaration order, stored records the protobuf one.
type Immutables struct {
	Salt             string          `protobuf:"bytes,1,opt,name=salt,proto3" json:"salt" yaml:"salt"`
	OrderRootHash    string          `protobuf:"bytes,2,opt,name=order_root_hash,proto3" json:"order_root_hash" yaml:"order_root_hash"`
	Hashlock         string          `protobuf:"bytes,3,opt,name=hashlock,proto3" json:"hashlock" yaml:"hashlock"`
	MakingToken      weave.AccountID `protobuf:"bytes,4,opt,name=making_token,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"making_token" yaml:"making_token"`
	TakingToken      weave.AccountID `protobuf:"bytes,5,opt,name=taking_token,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"taking_token" yaml:"taking_token"`
	MakingAmount     coin.Amount     `protobuf:"bytes,6,opt,name=making_amount,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"making_amount" yaml:"making_amount"`
	TakingAmount     coin.Amount     `protobuf:"bytes,7,opt,name=taking_amount,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"taking_amount" yaml:"taking_amount"`
	SrcSafetyDeposit coin.Amount     `protobuf:"bytes,8,opt,name=src_safety_deposit,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"src_safety_deposit" yaml:"src_safety_deposit"`
	DstSafetyDeposit coin.Amount     `protobuf:"bytes,9,opt,name=dst_safety_deposit,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"dst_safety_deposit" yaml:"dst_safety_deposit"`
	TimeLock         TimeLock        `protobuf:"bytes,10,opt,name=timelock,proto3" json:"timelock" yaml:"timelock"`
	Maker            weave.AccountID `protobuf:"bytes,11,opt,name=maker,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"maker" yaml:"maker"`
	Taker            weave.AccountID `protobuf:"bytes,12,opt,name=taker,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"taker" yaml:"taker"`
}

func (m *Immutables) Reset()         { *m = Immutables{} }
func (m *Immutables) String() string { return proto.CompactTextString(m) }
func (*Immutables) ProtoMessage()    {}

// Hash returns the content hash of the commitment. Strings are hashed as raw
// bytes, amounts as 16 byte big endian and deadlines as 8 byte big endian,
// in field declaration order.
func (m *Immutables) Hash() crypto.Hash {
	var buf []byte
	for _, s := range []string{m.Salt, m.OrderRootHash, m.Hashlock, string(m.MakingToken), string(m.TakingToken)} {
		buf = append(buf, s...)
	}
	for _, a := range []coin.Amount{m.MakingAmount, m.TakingAmount, m.SrcSafetyDeposit, m.DstSafetyDeposit} {
		buf = append(buf, a.BigEndian()...)
	}
	var u [8]byte
	for _, v := range m.TimeLock.fields() {
		binary.BigEndian.PutUint64(u[:], v)
		buf = append(buf, u[:]...)
	}
	buf = append(buf, m.Maker...)
	buf = append(buf, m.Taker...)
	return crypto.Keccak256(buf)
}

// Key returns the hex encoded hash, which is the database key of the
// commitment on both escrows.
func (m *Immutables) Key() []byte {
	return []byte(m.Hash().Hex())
}

// HashlockHash returns the decoded hashlock.
func (m *Immutables) HashlockHash() (crypto.Hash, error) {
	return crypto.ParseHash(m.Hashlock)
}

// Validate checks the commitment without access to the state.
func (m *Immutables) Validate() error {
	var err error
	if len(m.Salt) > maxSaltSize || !utf8.ValidString(m.Salt) {
		err = errors.AppendField(err, "Salt", errors.ErrInput)
	}
	if _, e := crypto.ParseHash(m.OrderRootHash); e != nil {
		err = errors.AppendField(err, "OrderRootHash", e)
	}
	if _, e := crypto.ParseHash(m.Hashlock); e != nil {
		err = errors.AppendField(err, "Hashlock", e)
	}
	err = errors.AppendField(err, "MakingToken", m.MakingToken.Validate())
	err = errors.AppendField(err, "TakingToken", m.TakingToken.Validate())
	if m.MakingAmount.IsZero() {
		err = errors.AppendField(err, "MakingAmount", errors.ErrAmount)
	}
	if m.TakingAmount.IsZero() {
		err = errors.AppendField(err, "TakingAmount", errors.ErrAmount)
	}
	err = errors.AppendField(err, "TimeLock", m.TimeLock.Validate())
	err = errors.AppendField(err, "Maker", m.Maker.Validate())
	err = errors.AppendField(err, "Taker", m.Taker.Validate())
	return err
}

// ParsePayload decodes a hex encoded Immutables payload, as attached to a
// funding transfer. The result is validated.
func ParsePayload(payload string) (*Immutables, error) {
	var m Immutables
	if err := codec.DecodeHex(payload, &m); err != nil {
		return nil, errors.Wrap(err, "immutables payload")
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "immutables")
	}
	return &m, nil
}
