/*
Package merkle implements the sorted-pair Keccak-256 tree used to commit to
the per-segment hashlocks of a partially fillable order.

Each segment is represented by a leaf bound to its position,

	leaf = keccak256(uint16_be(index) || hashlock)

and inner nodes hash their two children with the smaller one first, so a
proof is a plain list of sibling hashes with no left/right markers.
*/
package merkle
