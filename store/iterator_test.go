package store

import (
	"testing"

	"github.com/htlcswap/weave/weavetest/assert"
)

func TestCacheIteratorRelease(t *testing.T) {
	db := MemStore()
	assert.Nil(t, db.Set([]byte("a"), []byte("A")))
	cache := db.CacheWrap()

	it, err := cache.Iterator([]byte("a"), []byte("z"))
	if err != nil {
		t.Fatalf("cannot create iterator: %s", err)
	}
	it.Release()
	assert.Nil(t, db.Delete([]byte("a")))

	rit, err := cache.ReverseIterator([]byte("a"), []byte("z"))
	if err != nil {
		t.Fatalf("cannot create iterator: %s", err)
	}
	rit.Release()
	assert.Nil(t, db.Set([]byte("b"), []byte("B")))
}
