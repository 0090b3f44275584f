package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/dvel/src/crypto"
)

func genesisEvent(t *testing.T, author byte, ts uint64) Event {
	t.Helper()
	var seed [crypto.Size]byte
	seed[0] = author
	return NewSignedEvent(seed, crypto.ZeroDigest, ts, crypto.Hash([]byte("payload")))
}

func childEvent(t *testing.T, author byte, ts uint64, prev Digest) Event {
	t.Helper()
	var seed [crypto.Size]byte
	seed[0] = author
	return NewSignedEvent(seed, prev, ts, crypto.Hash([]byte("payload")))
}

func TestLinkGenesisThenChild(t *testing.T) {
	l := New(NewInmemStore(), nil)

	e1 := genesisEvent(t, 1, 1)
	d1, res, err := l.Link(e1)
	require.NoError(t, err)
	assert.Equal(t, LinkOk, res)
	assert.Equal(t, []Digest{d1}, l.Tips())

	e2 := childEvent(t, 2, 3, d1)
	d2, res, err := l.Link(e2)
	require.NoError(t, err)
	assert.Equal(t, LinkOk, res)
	assert.Equal(t, []Digest{d2}, l.Tips())

	got, ok := l.Get(d1)
	require.True(t, ok)
	assert.Equal(t, e1, got)
}

func TestLinkIdempotence(t *testing.T) {
	l := New(NewInmemStore(), nil)
	e1 := genesisEvent(t, 1, 1)

	_, res1, err := l.Link(e1)
	require.NoError(t, err)
	assert.Equal(t, LinkOk, res1)

	before := l.Tips()

	_, res2, err := l.Link(e1)
	require.NoError(t, err)
	assert.Equal(t, LinkDuplicate, res2)
	assert.Equal(t, before, l.Tips())
}

func TestLinkMissingParent(t *testing.T) {
	l := New(NewInmemStore(), nil)
	orphan := childEvent(t, 1, 5, crypto.Hash([]byte("nonexistent-parent")))

	_, res, err := l.Link(orphan)
	require.NoError(t, err)
	assert.Equal(t, LinkMissingParent, res)
	assert.Empty(t, l.Tips())
}

func TestTipInvariantAfterFork(t *testing.T) {
	l := New(NewInmemStore(), nil)
	e1 := genesisEvent(t, 1, 1)
	d1, _, err := l.Link(e1)
	require.NoError(t, err)

	e2 := childEvent(t, 2, 2, d1)
	e3 := childEvent(t, 3, 3, d1)
	d2, _, err := l.Link(e2)
	require.NoError(t, err)
	d3, _, err := l.Link(e3)
	require.NoError(t, err)

	tips := l.Tips()
	assert.ElementsMatch(t, []Digest{d2, d3}, tips)
}

func TestMerkleRootEmptyAndDeterministic(t *testing.T) {
	l := New(NewInmemStore(), nil)
	_, ok := l.MerkleRoot()
	assert.False(t, ok)

	e1 := genesisEvent(t, 1, 1)
	d1, _, err := l.Link(e1)
	require.NoError(t, err)
	e2 := childEvent(t, 2, 2, d1)
	_, _, err = l.Link(e2)
	require.NoError(t, err)

	root1, ok := l.MerkleRoot()
	require.True(t, ok)

	// A second ledger receiving the same two events in the opposite order
	// must compute the same root: the root is a pure function of the digest
	// set, not of insertion order (spec.md §3).
	l2 := New(NewInmemStore(), nil)
	_, res, err := l2.Link(e2)
	require.NoError(t, err)
	assert.Equal(t, LinkMissingParent, res)
	_, res, err = l2.Link(e1)
	require.NoError(t, err)
	assert.Equal(t, LinkOk, res)
	_, res, err = l2.Link(e2)
	require.NoError(t, err)
	assert.Equal(t, LinkOk, res)

	root2, ok := l2.MerkleRoot()
	require.True(t, ok)
	assert.Equal(t, root1, root2)
}

func TestHashDeterminismSingleBitFlip(t *testing.T) {
	e := genesisEvent(t, 1, 1)
	d1 := e.Digest()

	mutated := e
	mutated.Timestamp ^= 1
	d2 := mutated.Digest()

	assert.NotEqual(t, d1, d2)
}
