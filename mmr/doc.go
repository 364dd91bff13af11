/*
Package mmr implements a Merkle Mountain Range (MMR): an append-only,
position-addressed cryptographic accumulator.

An MMR is a forest of perfectly balanced binary merkle trees laid out over a
flat, insertion-ordered sequence of node positions. The layout is exactly the
post order traversal (children first, left to right) of the trees, which is
also the natural append order. Because of this, all navigation - parent,
sibling, peak discovery - reduces to binary arithmetic on positions and never
requires the tree to be materialized.

Given the 0 based index tree below, the node indices of an MMR with 11 nodes
are:

	2        6
	       /   \
	1     2     5      9
	     / \   / \    / \
	0   0   1 3   4  7   8 10

Nodes 6, 9 and 10 are the current peaks. The ordered set of peaks is fully
determined by the node count: one peak per set bit of the leaf count, highest
peak first. A single root commitment is obtained by "bagging" the peaks -
folding them together with the node hash, lowest (most recent) peak first.

The package is layered the way the accumulator's trust model demands:

  - The position arithmetic (IndexHeight, Peaks, InclusionPath, ...) is pure
    and stateless. It is the correctness foundation for everything else.
  - Hashing is injected through the Hasher contract, which domain separates
    leaf hashing from interior node hashing.
  - Node values live behind the NodeStore contract (Get/Append/Len), so the
    backing storage can be swapped without touching any algorithm.
  - The MMR engine combines the three to append leaves, compute roots and
    generate proofs.
  - Proof verification needs only the arithmetic and a Hasher. A verifier
    holding just a root never touches a store.

The approach follows the lead of the mimblewimble rust implementation and the
sources derived from it:

  - https://github.com/mimblewimble/grin/blob/master/core/src/core/pmmr.rs
  - https://github.com/proofchains/python-proofmarshal/blob/master/proofmarshal/mmr.py
  - https://lists.linuxfoundation.org/pipermail/bitcoin-dev/2016-May/012715.html

All exported functions take and return 0 based node indices. 1 based
positions exist only inside the height scan, where the 'all ones' encoding of
the left most branch requires them.
*/
package mmr
