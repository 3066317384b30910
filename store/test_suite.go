package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/weavetest/assert"
)

// TestSuite runs the KVStore checks shared by the btree and the leveldb
// backends. Only the constructor of the base store differs.
type TestSuite struct {
	makeBase TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that a cache reads through to its base and that only
// written caches change it.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	order, open := []byte("order"), []byte("open")
	s.AssertGetHas(t, base, order, nil, false)
	assert.Nil(t, base.Set(order, open))
	s.AssertGetHas(t, base, order, open, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, order, open, true)
	fill, committed := []byte("fill"), []byte("committed")
	assert.Nil(t, cache.Set(fill, committed))
	s.AssertGetHas(t, cache, fill, committed, true)
	s.AssertGetHas(t, base, fill, nil, false)
	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, fill, committed, true)

	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set([]byte("refund"), []byte("pending")))
	assert.Nil(t, discarded.Delete(order))
	discarded.Discard()
	s.AssertGetHas(t, base, order, open, true)
	s.AssertGetHas(t, base, []byte("refund"), nil, false)
}

// CacheConflicts checks overwrites and deletes of values held by the base.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 40)

	parent, cleanup := s.makeBase()
	defer cleanup()
	assert.Nil(t, SetOp(ks[1], vs[1]).Apply(parent))
	assert.Nil(t, SetOp(ks[2], vs[2]).Apply(parent))

	child := parent.CacheWrap()
	for _, op := range []Op{SetOp(ks[1], vs[0]), SetOp(ks[3], vs[3]), DelOp(ks[2])} {
		assert.Nil(t, op.Apply(child))
	}

	parentView := []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)}
	childView := []Model{Pair(ks[1], vs[0]), Pair(ks[2], nil), Pair(ks[3], vs[3])}
	for _, q := range parentView {
		s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
	}
	for _, q := range childView {
		s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
	}
	assert.Nil(t, child.Write())
	for _, q := range childView {
		s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
	}
}

// Iterators checks ranges over a cache combining its own writes with the
// content of its base, in both directions.
func (s *TestSuite) Iterators(t *testing.T) {
	ms := randModels(30, 8, 20)
	a, a2, b, c := ms[0], ms[1], ms[2], ms[3]
	a2.Key = a.Key
	parentOnly, childOnly := ms[4:17], ms[17:]
	all := sortModels(append(append([]Model{}, parentOnly...), childOnly...))

	cases := map[string]struct {
		pre     []Op
		child   []Op
		queries []rangeQuery
	}{
		"child and parent": {
			pre:   makeSetOps(parentOnly...),
			child: makeSetOps(childOnly...),
			queries: []rangeQuery{
				{nil, nil, false, all},
				{all[5].Key, all[20].Key, false, all[5:20]},
				{nil, nil, true, reverse(all)},
				{all[3].Key, nil, true, reverse(all[3:])},
			},
		},
		"child overwrites and deletes": {
			pre:   makeSetOps(a, b, c),
			child: append(makeSetOps(a2), DelOp(b.Key)),
			queries: []rangeQuery{
				{nil, nil, false, sortModels([]Model{a2, c})},
				{nil, nil, true, reverse(sortModels([]Model{a2, c}))},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			for _, op := range tc.pre {
				assert.Nil(t, op.Apply(base))
			}
			child := base.CacheWrap()
			for _, op := range tc.child {
				assert.Nil(t, op.Apply(child))
			}
			for _, q := range tc.queries {
				q.verify(t, child)
			}
		})
	}
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// rangeQuery is an iteration and the models it must return.
type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (q rangeQuery) verify(t testing.TB, kv ReadOnlyKVStore) {
	t.Helper()
	var (
		iter Iterator
		err  error
	)
	if q.reverse {
		iter, err = kv.ReverseIterator(q.start, q.end)
	} else {
		iter, err = kv.Iterator(q.start, q.end)
	}
	assert.Nil(t, err)
	defer iter.Release()
	for i, want := range q.expected {
		key, value, err := iter.Next()
		assert.Nil(t, err)
		if !bytes.Equal(want.Key, key) {
			t.Fatalf("entry %d: want key %X, got %X", i, want.Key, key)
		}
		assert.Equal(t, want.Value, value)
	}
	if _, _, err := iter.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want ErrIteratorDone, got %+v", err)
	}
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = make([]byte, size)
		if _, err := rand.Read(res[i]); err != nil {
			panic(err)
		}
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	keys := randKeys(count, keySize)
	values := randKeys(count, valueSize)
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(keys[i], values[i])
	}
	return models
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}
