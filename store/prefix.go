package store

// PrefixStore restricts a KVStore to all keys starting with a prefix. Keys
// are passed without the prefix, so that every contract sees a private
// keyspace over a shared database.
type PrefixStore struct {
	prefix []byte
	kv     KVStore
}

var _ KVStore = PrefixStore{}

// NewPrefixStore returns a store view of all keys starting with prefix.
func NewPrefixStore(kv KVStore, prefix []byte) PrefixStore {
	return PrefixStore{prefix: append([]byte(nil), prefix...), kv: kv}
}

func (p PrefixStore) key(k []byte) []byte {
	res := make([]byte, len(p.prefix)+len(k))
	copy(res, p.prefix)
	copy(res[len(p.prefix):], k)
	return res
}

// Get implements KVStore.
func (p PrefixStore) Get(key []byte) ([]byte, error) {
	return p.kv.Get(p.key(key))
}

// Has implements KVStore.
func (p PrefixStore) Has(key []byte) (bool, error) {
	return p.kv.Has(p.key(key))
}

// Set implements KVStore.
func (p PrefixStore) Set(key, value []byte) error {
	return p.kv.Set(p.key(key), value)
}

// Delete implements KVStore.
func (p PrefixStore) Delete(key []byte) error {
	return p.kv.Delete(p.key(key))
}

// NewBatch implements KVStore.
func (p PrefixStore) NewBatch() Batch {
	return prefixBatch{p: p, b: p.kv.NewBatch()}
}

func (p PrefixStore) bounds(start, end []byte) ([]byte, []byte) {
	s := p.key(start)
	var e []byte
	if end == nil {
		e = PrefixEnd(p.prefix)
	} else {
		e = p.key(end)
	}
	return s, e
}

// Iterator implements KVStore.
func (p PrefixStore) Iterator(start, end []byte) (Iterator, error) {
	s, e := p.bounds(start, end)
	it, err := p.kv.Iterator(s, e)
	if err != nil {
		return nil, err
	}
	return prefixIterator{n: len(p.prefix), it: it}, nil
}

// ReverseIterator implements KVStore.
func (p PrefixStore) ReverseIterator(start, end []byte) (Iterator, error) {
	s, e := p.bounds(start, end)
	it, err := p.kv.ReverseIterator(s, e)
	if err != nil {
		return nil, err
	}
	return prefixIterator{n: len(p.prefix), it: it}, nil
}

type prefixBatch struct {
	p PrefixStore
	b Batch
}

func (b prefixBatch) Set(key, value []byte) error {
	return b.b.Set(b.p.key(key), value)
}

func (b prefixBatch) Delete(key []byte) error {
	return b.b.Delete(b.p.key(key))
}

func (b prefixBatch) Write() error {
	return b.b.Write()
}

type prefixIterator struct {
	n  int
	it Iterator
}

func (i prefixIterator) Next() (key, value []byte, err error) {
	key, value, err = i.it.Next()
	if err != nil {
		return nil, nil, err
	}
	return key[i.n:], value, nil
}

func (i prefixIterator) Release() {
	i.it.Release()
}

// PrefixEnd returns the smallest key greater than all keys starting with
// given prefix, or nil if there is no such key.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
