package orm

import (
	"strconv"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest/assert"
)

type counter struct {
	Owner string `protobuf:"bytes,1,opt,name=owner,proto3"`
	Count uint64 `protobuf:"varint,2,opt,name=count,proto3"`
}

func (c *counter) Reset()         { *c = counter{} }
func (c *counter) String() string { return proto.CompactTextString(c) }
func (*counter) ProtoMessage()    {}

func (c *counter) Validate() error {
	if c.Owner == "" {
		return errors.Field("Owner", errors.ErrEmpty, "required")
	}
	return nil
}

type other struct{ counter }

func byOwner(m Model) ([][]byte, error) {
	c, ok := m.(*counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return [][]byte{[]byte(c.Owner)}, nil
}

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	assert.Nil(t, b.Put(db, []byte("c1"), &counter{Owner: "alice", Count: 1}))

	var c1 counter
	assert.Nil(t, b.One(db, []byte("c1"), &c1))
	assert.Equal(t, counter{Owner: "alice", Count: 1}, c1)
	assert.Nil(t, b.Has(db, []byte("c1")))

	assert.IsErr(t, errors.ErrType, b.One(db, []byte("c1"), &other{}))
	assert.IsErr(t, errors.ErrType, b.Put(db, []byte("c2"), &other{}))
	assert.FieldError(t, b.Put(db, []byte("c2"), &counter{}), "Owner", errors.ErrEmpty)
	assert.IsErr(t, errors.ErrInput, b.Put(db, nil, &counter{Owner: "alice"}))

	assert.Nil(t, b.Delete(db, []byte("c1")))
	assert.IsErr(t, errors.ErrNotFound, b.Delete(db, []byte("unknown")))
	assert.IsErr(t, errors.ErrNotFound, b.One(db, []byte("c1"), &c1))
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, []byte("c1")))
}

func TestModelBucketIndex(t *testing.T) {
	cases := map[string]struct {
		IndexName string
		QueryKey  string
		WantErr   *errors.Error
		WantKeys  []string
	}{
		"find none": {
			IndexName: "owner",
			QueryKey:  "carol",
		},
		"find one": {
			IndexName: "owner",
			QueryKey:  "bob",
			WantKeys:  []string{"c3"},
		},
		"find two": {
			IndexName: "owner",
			QueryKey:  "alice",
			WantKeys:  []string{"c1", "c4"},
		},
		"prefix of an owner does not match": {
			IndexName: "owner",
			QueryKey:  "ali",
		},
		"non existing index name": {
			IndexName: "xyz",
			WantErr:   ErrInvalidIndex,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			b := NewModelBucket("cnts", &counter{}, WithIndex("owner", byOwner))

			assert.Nil(t, b.Put(db, []byte("c1"), &counter{Owner: "alice"}))
			assert.Nil(t, b.Put(db, []byte("c2"), &counter{Owner: "alice"}))
			assert.Nil(t, b.Put(db, []byte("c3"), &counter{Owner: "bob"}))
			assert.Nil(t, b.Put(db, []byte("c4"), &counter{Owner: "alice"}))
			// Moving c2 to another owner must drop the old index entry.
			assert.Nil(t, b.Put(db, []byte("c2"), &counter{Owner: "dave"}))
			assert.Nil(t, b.Put(db, []byte("c5"), &counter{Owner: "erin"}))
			assert.Nil(t, b.Delete(db, []byte("c5")))

			keys, err := b.ByIndex(db, tc.IndexName, []byte(tc.QueryKey))
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %s", err)
			}
			var got []string
			for _, k := range keys {
				got = append(got, string(k))
			}
			assert.Equal(t, tc.WantKeys, got)
		})
	}
}

func TestModelBucketKeys(t *testing.T) {
	db := store.MemStore()
	a := NewModelBucket("aaa", &counter{})
	b := NewModelBucket("aab", &counter{})
	for i := 3; i > 0; i-- {
		assert.Nil(t, a.Put(db, []byte(strconv.Itoa(i)), &counter{Owner: "x"}))
	}
	assert.Nil(t, b.Put(db, []byte("9"), &counter{Owner: "y"}))

	keys, err := a.Keys(db)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("1"), []byte("2"), []byte("3")}, keys)
}

func TestInvalidBucketName(t *testing.T) {
	assert.Panics(t, func() { NewModelBucket("X", &counter{}) })
	assert.Panics(t, func() { NewModelBucket("valid", &counter{}, WithIndex("A", byOwner)) })
}

func TestModelBucketStoresProtobuf(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})
	assert.Nil(t, b.Put(db, []byte("c1"), &counter{Owner: "alice", Count: 3}))

	raw, err := db.Get([]byte("cnts:c1"))
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x0a, 5, 'a', 'l', 'i', 'c', 'e', 0x10, 3}, raw)

	assert.Nil(t, db.Set([]byte("cnts:c2"), []byte{0x0a, 9, 'x'}))
	var c counter
	assert.IsErr(t, errors.ErrModel, b.One(db, []byte("c2"), &c))
}
