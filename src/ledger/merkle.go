package ledger

import "github.com/mosaicnetworks/dvel/src/crypto"

// MerkleRoot returns the deterministic Merkle root over every digest
// currently stored, or false if the ledger is empty (spec.md §4.2). Digests
// are sorted lexicographically before the tree is built, so the result
// depends only on the set of digests, never on insertion order.
func (l *Ledger) MerkleRoot() (Digest, bool) {
	all, err := l.store.All()
	if err != nil || len(all) == 0 {
		return Digest{}, false
	}
	sortDigests(all)
	return merkleRoot(all), true
}

// merkleRoot builds a binary Merkle tree over already-sorted leaves,
// duplicating the last node of any odd-sized level, per spec.md §4.2.
func merkleRoot(leaves []Digest) Digest {
	level := leaves
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Digest, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, crypto.HashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}
