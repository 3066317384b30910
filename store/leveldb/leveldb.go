/*
Package leveldb provides a persistent KVStore backed by goleveldb. It is the
base layer of a chain home directory: every call runs in a btree cache-wrap
over it and only successful calls are written through.
*/
package leveldb

import (
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is a KVStore persisted in a leveldb database.
type Store struct {
	db *leveldb.DB
}

var _ store.CacheableKVStore = (*Store)(nil)

// Open opens or creates a database in given directory.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a database that is never written to disk.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open memory: %s", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get implements KVStore.
func (s *Store) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

// Has implements KVStore.
func (s *Store) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Set implements KVStore.
func (s *Store) Set(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Delete implements KVStore.
func (s *Store) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// NewBatch returns an atomic batch.
func (s *Store) NewBatch() store.Batch {
	return &batch{db: s.db, b: new(leveldb.Batch)}
}

// CacheWrap returns a btree cache that writes through an atomic batch.
func (s *Store) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Iterator implements KVStore.
func (s *Store) Iterator(start, end []byte) (store.Iterator, error) {
	it := s.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &iter{it: it}, nil
}

// ReverseIterator implements KVStore.
func (s *Store) ReverseIterator(start, end []byte) (store.Iterator, error) {
	it := s.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &iter{it: it, reverse: true}, nil
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Set(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Write() error {
	if err := b.db.Write(b.b, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	b.b.Reset()
	return nil
}

func (b *batch) Discard() {
	b.b.Reset()
}

type iter struct {
	it      iterator.Iterator
	reverse bool
	started bool
}

func (i *iter) Next() (key, value []byte, err error) {
	var ok bool
	switch {
	case !i.started && i.reverse:
		ok = i.it.Last()
	case !i.started:
		ok = i.it.First()
	case i.reverse:
		ok = i.it.Prev()
	default:
		ok = i.it.Next()
	}
	i.started = true
	if !ok {
		if err := i.it.Error(); err != nil {
			return nil, nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return nil, nil, errors.ErrIteratorDone
	}
	// Iterator buffers are reused, copy before returning.
	key = append([]byte(nil), i.it.Key()...)
	value = append([]byte(nil), i.it.Value()...)
	return key, value, nil
}

func (i *iter) Release() {
	i.it.Release()
}
