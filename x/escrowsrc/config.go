package escrowsrc

import (
	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/gconf"
)

const confPackage = "escrowsrc"

// Configuration of the source escrow.
type Configuration struct {
	// ExpirationMargin is the minimal time in nanoseconds between the
	// funding of an order and its expiration.
	ExpirationMargin uint64 `protobuf:"varint,1,opt,name=expiration_margin,json=expirationMargin,proto3" json:"expiration_margin,omitempty"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Reset()         { *c = Configuration{} }
func (c *Configuration) String() string { return proto.CompactTextString(c) }
func (*Configuration) ProtoMessage()    {}

func DefaultConfiguration() Configuration {
	return Configuration{ExpirationMargin: 500}
}

func (c *Configuration) Validate() error {
	return nil
}

func loadConf(db weave.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, confPackage, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
