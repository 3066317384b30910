package orm

import (
	"encoding/binary"
	"reflect"
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString
	isIndexName  = regexp.MustCompile(`^[a-z_]{2,20}$`).MatchString
)

// Model is implemented by any entity that can be stored using ModelBucket.
// Models are protobuf messages.
type Model interface {
	proto.Message
	Validate() error
}

// IndexFunc returns the index keys for given model. A model may be listed
// under any number of keys, including none.
type IndexFunc func(Model) ([][]byte, error)

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db weave.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists, and
	// ErrNotFound otherwise.
	Has(db weave.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database, replacing any entity stored
	// under the same key. Indexes are updated.
	Put(db weave.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weave.KVStore, key []byte) error

	// ByIndex returns the primary keys of all entities listed under given
	// index key, ordered by primary key.
	ByIndex(db weave.ReadOnlyKVStore, indexName string, key []byte) ([][]byte, error)

	// Keys returns the primary keys of all stored entities, ordered.
	Keys(db weave.ReadOnlyKVStore) ([][]byte, error)
}

// ModelBucketOption is implemented by functions that configure a bucket.
type ModelBucketOption func(*modelBucket)

// WithIndex registers a secondary index maintained on every write.
func WithIndex(name string, fn IndexFunc) ModelBucketOption {
	if !isIndexName(name) {
		panic("invalid index name: " + name)
	}
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic("index already registered: " + name)
		}
		mb.indexes[name] = fn
	}
}

// NewModelBucket returns a ModelBucket storing models of the same type as
// given example.
func NewModelBucket(name string, example Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	tp := reflect.TypeOf(example)
	if tp.Kind() != reflect.Ptr {
		panic("model must be a pointer")
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   tp,
		indexes: make(map[string]IndexFunc),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]IndexFunc
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

func (mb *modelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrInput, "empty key")
	}
	if !reflect.TypeOf(dest).AssignableTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %s", dest, mb.model)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot load from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %x", mb.name, key)
	}
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", mb.name, err)
	}
	return nil
}

func (mb *modelBucket) Has(db weave.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrInput, "empty key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %x", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Put(db weave.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrInput, "empty key")
	}
	if !reflect.TypeOf(m).AssignableTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%T cannot be stored in %s", m, mb.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := proto.Marshal(m)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot marshal %s: %s", mb.name, err)
	}
	if len(mb.indexes) > 0 {
		if err := mb.dropIndexes(db, key); err != nil {
			return err
		}
		if err := mb.writeIndexes(db, key, m); err != nil {
			return err
		}
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db weave.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := mb.dropIndexes(db, key); err != nil {
		return err
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (mb *modelBucket) ByIndex(db weave.ReadOnlyKVStore, indexName string, key []byte) ([][]byte, error) {
	if _, ok := mb.indexes[indexName]; !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "%s has no index %q", mb.name, indexName)
	}
	prefix := mb.indexPrefix(indexName, key)
	it, err := db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var keys [][]byte
	for {
		k, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, append([]byte(nil), k[len(prefix):]...))
	}
}

func (mb *modelBucket) Keys(db weave.ReadOnlyKVStore) ([][]byte, error) {
	it, err := db.Iterator(mb.prefix, prefixEnd(mb.prefix))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var keys [][]byte
	for {
		k, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, append([]byte(nil), k[len(mb.prefix):]...))
	}
}

// indexPrefix returns the key prefix under which all primary keys listed
// under given index key are stored. The index key is length prefixed so
// that no index key is a prefix of another.
func (mb *modelBucket) indexPrefix(indexName string, key []byte) []byte {
	res := []byte("_i." + mb.name + "_" + indexName + ":")
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(key)))
	res = append(res, n[:]...)
	return append(res, key...)
}

func (mb *modelBucket) indexEntries(key []byte, m Model) ([][]byte, error) {
	var entries [][]byte
	for name, fn := range mb.indexes {
		ikeys, err := fn(m)
		if err != nil {
			return nil, errors.Wrapf(err, "index %q", name)
		}
		for _, ik := range ikeys {
			entries = append(entries, append(mb.indexPrefix(name, ik), key...))
		}
	}
	return entries, nil
}

func (mb *modelBucket) writeIndexes(db weave.KVStore, key []byte, m Model) error {
	entries, err := mb.indexEntries(key, m)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := db.Set(e, []byte{1}); err != nil {
			return errors.Wrap(err, "cannot write index")
		}
	}
	return nil
}

func (mb *modelBucket) dropIndexes(db weave.KVStore, key []byte) error {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot load from the database")
	}
	if raw == nil || len(mb.indexes) == 0 {
		return nil
	}
	old := reflect.New(mb.model.Elem()).Interface().(Model)
	if err := proto.Unmarshal(raw, old); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", mb.name, err)
	}
	entries, err := mb.indexEntries(key, old)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := db.Delete(e); err != nil {
			return errors.Wrap(err, "cannot delete index")
		}
	}
	return nil
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
