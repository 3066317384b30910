package merkle

import (
	"bytes"
	"encoding/binary"

	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
)

// Leaf returns the leaf committing to the hashlock of the segment at given
// index.
func Leaf(index uint16, hashlock crypto.Hash) crypto.Hash {
	var idx [2]byte
	binary.BigEndian.PutUint16(idx[:], index)
	return crypto.Keccak256(idx[:], hashlock[:])
}

// HashPair combines two nodes, smaller first.
func HashPair(a, b crypto.Hash) crypto.Hash {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return crypto.Keccak256(a[:], b[:])
	}
	return crypto.Keccak256(b[:], a[:])
}

// Verify returns true if folding the proof over the leaf yields the root.
func Verify(leaf crypto.Hash, proof []crypto.Hash, root crypto.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
	}
	return computed == root
}

// ParseProof decodes a list of hex encoded proof elements.
func ParseProof(raw []string) ([]crypto.Hash, error) {
	proof := make([]crypto.Hash, 0, len(raw))
	for i, r := range raw {
		h, err := crypto.ParseHash(r)
		if err != nil {
			return nil, errors.Wrapf(err, "proof element %d", i)
		}
		proof = append(proof, h)
	}
	return proof, nil
}

// Tree is a complete sorted-pair tree over a list of leaves. An odd node at
// the end of a level is promoted to the next level unchanged.
type Tree struct {
	levels [][]crypto.Hash
}

// NewTree builds a tree over given leaves. At least one leaf is required.
func NewTree(leaves []crypto.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "leaves")
	}
	level := append([]crypto.Hash(nil), leaves...)
	levels := [][]crypto.Hash{level}
	for len(level) > 1 {
		next := make([]crypto.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, HashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// NewSecretTree builds the tree committing to the hashlocks of a multi part
// order. The i-th hashlock is bound to index i. An order split into n parts
// needs n+1 hashlocks, the last one being used by the fill that completes
// the order.
func NewSecretTree(hashlocks []crypto.Hash) (*Tree, error) {
	if len(hashlocks) > 1<<16 {
		return nil, errors.Wrapf(errors.ErrInput, "too many hashlocks: %d", len(hashlocks))
	}
	leaves := make([]crypto.Hash, len(hashlocks))
	for i, h := range hashlocks {
		leaves[i] = Leaf(uint16(i), h)
	}
	return NewTree(leaves)
}

// Root returns the root of the tree.
func (t *Tree) Root() crypto.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Leaf returns the leaf at given position.
func (t *Tree) Leaf(i int) crypto.Hash {
	return t.levels[0][i]
}

// Proof returns the siblings needed to verify the leaf at given position.
func (t *Tree) Proof(i int) ([]crypto.Hash, error) {
	if i < 0 || i >= t.Len() {
		return nil, errors.Wrapf(errors.ErrInput, "leaf %d out of range", i)
	}
	var proof []crypto.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		i /= 2
	}
	return proof, nil
}
