package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the native balance of a single account.
type Wallet struct {
	Balance coin.Amount `protobuf:"bytes,1,opt,name=balance,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"balance"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Reset()         { *w = Wallet{} }
func (w *Wallet) String() string { return proto.CompactTextString(w) }
func (*Wallet) ProtoMessage()    {}

// Validate implements orm.Model. Any balance is valid.
func (w *Wallet) Validate() error {
	return nil
}

// NewBucket returns a bucket for storing wallets keyed by account id.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}
