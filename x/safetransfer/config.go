package safetransfer

import (
	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/gconf"
)

const confPackage = "safetransfer"

// Configuration holds the native fees paid to a token while transferring.
type Configuration struct {
	// RegistrationFee is attached to storage_deposit when the receiver is
	// not registered with the token.
	RegistrationFee string `protobuf:"bytes,1,opt,name=registration_fee,proto3" json:"registration_fee,omitempty"`
	// TransferFee is attached to every ft_transfer.
	TransferFee string `protobuf:"bytes,2,opt,name=transfer_fee,proto3" json:"transfer_fee,omitempty"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Reset()         { *c = Configuration{} }
func (c *Configuration) String() string { return proto.CompactTextString(c) }
func (*Configuration) ProtoMessage()    {}

func DefaultConfiguration() Configuration {
	return Configuration{
		RegistrationFee: "1250000000000000000000",
		TransferFee:     "1",
	}
}

func (c *Configuration) Validate() error {
	var err error
	if _, e := coin.ParseAmount(c.RegistrationFee); e != nil {
		err = errors.AppendField(err, "RegistrationFee", e)
	}
	if fee, e := coin.ParseAmount(c.TransferFee); e != nil {
		err = errors.AppendField(err, "TransferFee", e)
	} else if fee.IsZero() {
		err = errors.AppendField(err, "TransferFee", errors.ErrAmount)
	}
	return err
}

// InitConfig saves the configuration found in the genesis options of a
// contract using safe transfers, or the default one.
func InitConfig(db gconf.Store, opts weave.Options) error {
	conf := DefaultConfiguration()
	if err := gconf.InitConfigOrDefault(db, opts, confPackage, &conf); err != nil {
		return errors.Wrap(err, "safetransfer configuration")
	}
	return nil
}

type fees struct {
	registration coin.Amount
	transfer     coin.Amount
}

func loadFees(db weave.ReadOnlyKVStore) (fees, error) {
	var conf Configuration
	if err := gconf.Load(db, confPackage, &conf); err != nil {
		return fees{}, errors.Wrap(err, "load configuration")
	}
	registration, err := coin.ParseAmount(conf.RegistrationFee)
	if err != nil {
		return fees{}, errors.Wrap(err, "registration fee")
	}
	transfer, err := coin.ParseAmount(conf.TransferFee)
	if err != nil {
		return fees{}, errors.Wrap(err, "transfer fee")
	}
	return fees{registration: registration, transfer: transfer}, nil
}
