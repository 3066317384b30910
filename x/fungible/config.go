package fungible

import (
	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/gconf"
)

const confPackage = "fungible"

// Configuration of a token contract. Amounts are decimal strings.
type Configuration struct {
	// StorageFee is the minimal deposit required to register an account.
	StorageFee string `protobuf:"bytes,1,opt,name=storage_fee,proto3" json:"storage_fee,omitempty"`
	// TransferFee is the exact deposit that must be attached to a transfer.
	TransferFee string `protobuf:"bytes,2,opt,name=transfer_fee,proto3" json:"transfer_fee,omitempty"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Reset()         { *c = Configuration{} }
func (c *Configuration) String() string { return proto.CompactTextString(c) }
func (*Configuration) ProtoMessage()    {}

// DefaultConfiguration is used when the genesis does not configure the
// token.
func DefaultConfiguration() Configuration {
	return Configuration{
		StorageFee:  "1250000000000000000000",
		TransferFee: "1",
	}
}

func (c *Configuration) Validate() error {
	var err error
	if _, e := coin.ParseAmount(c.StorageFee); e != nil {
		err = errors.AppendField(err, "StorageFee", e)
	}
	if _, e := coin.ParseAmount(c.TransferFee); e != nil {
		err = errors.AppendField(err, "TransferFee", e)
	}
	return err
}

// fees are the parsed amounts of a configuration.
type fees struct {
	storage  coin.Amount
	transfer coin.Amount
}

func loadFees(db weave.ReadOnlyKVStore) (fees, error) {
	var conf Configuration
	if err := gconf.Load(db, confPackage, &conf); err != nil {
		return fees{}, errors.Wrap(err, "load configuration")
	}
	storage, err := coin.ParseAmount(conf.StorageFee)
	if err != nil {
		return fees{}, errors.Wrap(err, "storage fee")
	}
	transfer, err := coin.ParseAmount(conf.TransferFee)
	if err != nil {
		return fees{}, errors.Wrap(err, "transfer fee")
	}
	return fees{storage: storage, transfer: transfer}, nil
}
