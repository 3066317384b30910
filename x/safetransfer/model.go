package safetransfer

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/orm"
)

// Stage is the step a pending transfer waits for.
type Stage int32

const (
	// StageCheckStorage waits for the registration status of the receiver.
	StageCheckStorage Stage = iota + 1
	// StageStorageDeposit waits for the receiver registration.
	StageStorageDeposit
	// StageTransfer waits for the token transfer.
	StageTransfer
)

func (s Stage) String() string {
	switch s {
	case StageCheckStorage:
		return "check_storage"
	case StageStorageDeposit:
		return "storage_deposit"
	case StageTransfer:
		return "transfer"
	}
	return fmt.Sprintf("stage(%d)", int32(s))
}

// PendingTransfer is a token transfer that was started and not yet
// confirmed by the token.
type PendingTransfer struct {
	ID       uint64          `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Token    weave.AccountID `protobuf:"bytes,2,opt,name=token,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"token"`
	Receiver weave.AccountID `protobuf:"bytes,3,opt,name=receiver,proto3,casttype=github.com/htlcswap/weave.AccountID" json:"receiver"`
	Amount   coin.Amount     `protobuf:"bytes,4,opt,name=amount,proto3,customtype=github.com/htlcswap/weave/coin.Amount" json:"amount"`
	Stage    Stage           `protobuf:"varint,5,opt,name=stage,proto3,casttype=github.com/htlcswap/weave/x/safetransfer.Stage" json:"stage"`
}

var _ orm.Model = (*PendingTransfer)(nil)

func (p *PendingTransfer) Reset()         { *p = PendingTransfer{} }
func (p *PendingTransfer) String() string { return proto.CompactTextString(p) }
func (*PendingTransfer) ProtoMessage()    {}

func (p *PendingTransfer) Validate() error {
	var err error
	if p.ID == 0 {
		err = errors.AppendField(err, "ID", errors.ErrEmpty)
	}
	err = errors.AppendField(err, "Token", p.Token.Validate())
	err = errors.AppendField(err, "Receiver", p.Receiver.Validate())
	if p.Amount.IsZero() {
		err = errors.AppendField(err, "Amount", errors.ErrAmount)
	}
	if p.Stage < StageCheckStorage || p.Stage > StageTransfer {
		err = errors.AppendField(err, "Stage", errors.ErrState)
	}
	return err
}

const bucketName = "pending_transfer"

// Bucket stores pending transfers under their sequence id.
type Bucket struct {
	orm.ModelBucket
	seq orm.Sequence
}

func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(bucketName, &PendingTransfer{}),
		seq:         orm.NewSequence(bucketName, "id"),
	}
}

// Create assigns the next id to the transfer and saves it.
func (b Bucket) Create(db weave.KVStore, p *PendingTransfer) error {
	id, err := b.seq.NextInt(db)
	if err != nil {
		return errors.Wrap(err, "sequence")
	}
	p.ID = id
	return b.Put(db, orm.EncodeSequence(id), p)
}

// Get loads the pending transfer with given id.
func (b Bucket) Get(db weave.ReadOnlyKVStore, id uint64) (*PendingTransfer, error) {
	var p PendingTransfer
	if err := b.One(db, orm.EncodeSequence(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save updates an existing transfer.
func (b Bucket) Save(db weave.KVStore, p *PendingTransfer) error {
	return b.Put(db, orm.EncodeSequence(p.ID), p)
}

// Remove deletes the transfer with given id.
func (b Bucket) Remove(db weave.KVStore, id uint64) error {
	return b.Delete(db, orm.EncodeSequence(id))
}
