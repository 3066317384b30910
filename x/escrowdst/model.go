package escrowdst

import (
	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/orm"
	"github.com/htlcswap/weave/x/swap"
)

// ResolverOrder is a funded commitment. SafetyDeposit is zero until the
// destination safety deposit is attached.
type ResolverOrder struct {
	swap.Immutables `protobuf:"bytes,1,opt,name=immutables,proto3,embedded=immutables" yaml:",inline"`
	SafetyDeposit   coin.Amount `protobuf:"bytes,2,opt,name=safety_deposit,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"safety_deposit" yaml:"safety_deposit"`
}

var _ orm.Model = (*ResolverOrder)(nil)

func (o *ResolverOrder) Reset()         { *o = ResolverOrder{} }
func (o *ResolverOrder) String() string { return proto.CompactTextString(o) }
func (*ResolverOrder) ProtoMessage()    {}

func (o *ResolverOrder) Validate() error {
	err := o.Immutables.Validate()
	if !o.SafetyDeposit.IsZero() && !o.SafetyDeposit.Equals(o.DstSafetyDeposit) {
		err = errors.AppendField(err, "SafetyDeposit", errors.ErrAmount)
	}
	return err
}

// IsSecured returns true once the safety deposit is attached.
func (o *ResolverOrder) IsSecured() bool {
	return !o.SafetyDeposit.IsZero()
}

// NewOrderBucket returns the bucket of resolver orders, keyed by the hex
// hash of their immutables and indexed by the root hash of the maker order
// they fill.
func NewOrderBucket() orm.ModelBucket {
	return orm.NewModelBucket("resolver_order", &ResolverOrder{},
		orm.WithIndex("order", orderRootIndex))
}

func orderRootIndex(m orm.Model) ([][]byte, error) {
	o, ok := m.(*ResolverOrder)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return [][]byte{[]byte(o.OrderRootHash)}, nil
}
