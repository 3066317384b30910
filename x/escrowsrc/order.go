package escrowsrc

import (
	"math"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/codec"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/orm"
	"github.com/htlcswap/weave/x/swap"
)

// MakerOrder is an order funded by a maker. RootHash is the hashlock of a
// single fill order, or the Merkle root over the indexed hashlocks of an
// order split into Parts segments.
type MakerOrder struct {
	RootHash        string          `protobuf:"bytes,1,opt,name=root_hash,proto3" json:"root_hash" yaml:"root_hash"`
	Token           weave.AccountID `protobuf:"bytes,2,opt,name=token,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"token" yaml:"token"`
	TotalAmount     coin.Amount     `protobuf:"bytes,3,opt,name=total_amount,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"total_amount" yaml:"total_amount"`
	Parts           uint32          `protobuf:"varint,4,opt,name=parts,proto3" json:"parts" yaml:"parts"`
	FilledAmount    coin.Amount     `protobuf:"bytes,5,opt,name=filled_amount,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"filled_amount" yaml:"filled_amount"`
	WithdrawnAmount coin.Amount     `protobuf:"bytes,6,opt,name=withdrawn_amount,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"withdrawn_amount" yaml:"withdrawn_amount"`
	Maker           weave.AccountID `protobuf:"bytes,7,opt,name=maker,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"maker" yaml:"maker"`
	Expiration      uint64          `protobuf:"varint,8,opt,name=expiration,proto3" json:"expiration" yaml:"expiration"`
}

var _ orm.Model = (*MakerOrder)(nil)

func (o *MakerOrder) Reset()         { *o = MakerOrder{} }
func (o *MakerOrder) String() string { return proto.CompactTextString(o) }
func (*MakerOrder) ProtoMessage()    {}

func (o *MakerOrder) Validate() error {
	var err error
	if _, e := crypto.ParseHash(o.RootHash); e != nil {
		err = errors.AppendField(err, "RootHash", e)
	}
	err = errors.AppendField(err, "Token", o.Token.Validate())
	err = errors.AppendField(err, "Maker", o.Maker.Validate())
	if o.TotalAmount.IsZero() {
		err = errors.AppendField(err, "TotalAmount", errors.ErrAmount)
	}
	if o.Parts == 0 || o.Parts > math.MaxUint16 {
		err = errors.AppendField(err, "Parts", errors.ErrInput)
	} else if o.TotalAmount.LessThan(coin.NewAmount(uint64(o.Parts))) {
		err = errors.AppendField(err, "Parts", errors.Wrap(errors.ErrInput, "more parts than units"))
	}
	if o.FilledAmount.GreaterThan(o.TotalAmount) {
		err = errors.AppendField(err, "FilledAmount", errors.ErrAmount)
	}
	if o.WithdrawnAmount.GreaterThan(o.FilledAmount) {
		err = errors.AppendField(err, "WithdrawnAmount", errors.ErrAmount)
	}
	return err
}

// Remaining returns the amount no resolver committed to yet.
func (o *MakerOrder) Remaining() coin.Amount {
	r, err := o.TotalAmount.Sub(o.FilledAmount)
	if err != nil {
		return coin.Zero
	}
	return r
}

// IsFilled returns true if the whole order is committed.
func (o *MakerOrder) IsFilled() bool {
	return o.FilledAmount.Equals(o.TotalAmount)
}

// OrderPayload is the order attached to a funding transfer. Its borsh
// layout follows the MakerOrder fields, with Parts as u16.
type OrderPayload struct {
	RootHash        string          `json:"root_hash" yaml:"root_hash"`
	Token           weave.AccountID `json:"token" yaml:"token"`
	TotalAmount     coin.Amount     `json:"total_amount" yaml:"total_amount"`
	Parts           uint16          `json:"parts" yaml:"parts"`
	FilledAmount    coin.Amount     `json:"filled_amount" yaml:"filled_amount"`
	WithdrawnAmount coin.Amount     `json:"withdrawn_amount" yaml:"withdrawn_amount"`
	Maker           weave.AccountID `json:"maker" yaml:"maker"`
	Expiration      uint64          `json:"expiration" yaml:"expiration"`
}

// Order returns the order described by the payload.
func (p *OrderPayload) Order() *MakerOrder {
	return &MakerOrder{
		RootHash:        p.RootHash,
		Token:           p.Token,
		TotalAmount:     p.TotalAmount,
		Parts:           uint32(p.Parts),
		FilledAmount:    p.FilledAmount,
		WithdrawnAmount: p.WithdrawnAmount,
		Maker:           p.Maker,
		Expiration:      p.Expiration,
	}
}

// Validate checks the described order.
func (p *OrderPayload) Validate() error {
	return p.Order().Validate()
}

// Payload returns the funding payload of the order. Parts must have been
// validated.
func (o *MakerOrder) Payload() *OrderPayload {
	return &OrderPayload{
		RootHash:        o.RootHash,
		Token:           o.Token,
		TotalAmount:     o.TotalAmount,
		Parts:           uint16(o.Parts),
		FilledAmount:    o.FilledAmount,
		WithdrawnAmount: o.WithdrawnAmount,
		Maker:           o.Maker,
		Expiration:      o.Expiration,
	}
}

// ParseOrderPayload decodes a hex encoded order as attached to a funding
// transfer. A funded order must not be filled yet.
func ParseOrderPayload(payload string) (*MakerOrder, error) {
	var p OrderPayload
	if err := codec.DecodeHex(payload, &p); err != nil {
		return nil, errors.Wrap(err, "order payload")
	}
	o := p.Order()
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "order")
	}
	if !o.FilledAmount.IsZero() || !o.WithdrawnAmount.IsZero() {
		return nil, errors.Wrap(errors.ErrState, "new order cannot be filled")
	}
	return o, nil
}

// Fill is a resolver commitment to a segment of a maker order.
type Fill struct {
	swap.Immutables `protobuf:"bytes,1,opt,name=immutables,proto3,embedded=immutables"`
}

var _ orm.Model = (*Fill)(nil)

func (f *Fill) Reset()         { *f = Fill{} }
func (f *Fill) String() string { return proto.CompactTextString(f) }
func (*Fill) ProtoMessage()    {}

// NewOrderBucket returns the bucket of maker orders, keyed by root hash.
func NewOrderBucket() orm.ModelBucket {
	return orm.NewModelBucket("maker_order", &MakerOrder{})
}

// NewFillBucket returns the bucket of fills, keyed by the hex hash of their
// immutables.
func NewFillBucket() orm.ModelBucket {
	return orm.NewModelBucket("resolver_fill", &Fill{},
		orm.WithIndex("order", fillOrderIndex))
}

func fillOrderIndex(m orm.Model) ([][]byte, error) {
	f, ok := m.(*Fill)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return [][]byte{[]byte(f.OrderRootHash)}, nil
}
