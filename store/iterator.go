package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/htlcswap/weave/errors"
)

///////////////////////////////////////////////////////
// From Items to Iterator

// ascendBtree collects all items within the range in ascending order. Items
// are read upfront so that releasing the iterator never races with writes to
// the tree.
func ascendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(item btree.Item) bool {
		items = append(items, item.(keyer))
		return true
	}
	if start == nil && end == nil {
		bt.Ascend(collect)
	} else if start == nil { // end != nil
		bt.AscendLessThan(bkey{end}, collect)
	} else if end == nil { // start != nil
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	} else { // both != nil
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// descendBtree collects all items within the range in descending order.
func descendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(item btree.Item) bool {
		items = append(items, item.(keyer))
		return true
	}
	if start == nil && end == nil {
		bt.Descend(collect)
	} else if start == nil { // end != nil
		bt.DescendLessOrEqual(bkeyLess{end}, collect)
	} else if end == nil { // start != nil
		bt.DescendGreaterThan(bkeyLess{start}, collect)
	} else { // both != nil
		bt.DescendRange(bkeyLess{end}, bkeyLess{start}, collect)
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// itemIter merges the cached items with the iterator of the parent store,
// taking into consideration overwrites and deletes.
type itemIter struct {
	items []keyer
	idx   int

	parent     Iterator
	parentKey  []byte
	parentVal  []byte
	parentDone bool

	reverse bool
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(items []keyer, parent Iterator, reverse bool) (*itemIter, error) {
	it := &itemIter{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
	if err := it.advanceParent(); err != nil {
		parent.Release()
		return nil, err
	}
	return it, nil
}

func (i *itemIter) advanceParent() error {
	if i.parentDone {
		return nil
	}
	k, v, err := i.parent.Next()
	if errors.ErrIteratorDone.Is(err) {
		i.parentDone = true
		i.parentKey, i.parentVal = nil, nil
		return nil
	}
	if err != nil {
		return err
	}
	i.parentKey, i.parentVal = k, v
	return nil
}

// firstKey selects the source holding the next key, if any.
func (i *itemIter) firstKey() source {
	usValid := i.idx < len(i.items)
	if i.parentDone {
		if !usValid {
			return none
		}
		return us
	} else if !usValid {
		return parent
	}

	cmp := bytes.Compare(i.parentKey, i.items[i.idx].Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}

// Next implements Iterator.
func (i *itemIter) Next() (key, value []byte, err error) {
	for {
		switch i.firstKey() {
		case none:
			return nil, nil, errors.ErrIteratorDone
		case parent:
			key, value = i.parentKey, i.parentVal
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// Cached value shadows the parent one.
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			fallthrough
		case us:
			item := i.items[i.idx]
			i.idx++
			if set, ok := item.(setItem); ok {
				return set.Key(), set.value, nil
			}
			// Deleted item, skip it.
		}
	}
}

// Release implements Iterator.
func (i *itemIter) Release() {
	i.parent.Release()
	i.items = nil
}
