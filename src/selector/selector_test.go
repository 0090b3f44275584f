package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/dvel/src/crypto"
	"github.com/mosaicnetworks/dvel/src/ledger"
	"github.com/mosaicnetworks/dvel/src/sybil"
)

func mustLink(t *testing.T, lg *ledger.Ledger, e ledger.Event) ledger.Digest {
	t.Helper()
	d, res, err := lg.Link(e)
	require.NoError(t, err)
	require.Equal(t, ledger.LinkOk, res)
	return d
}

func TestSelectPreferredTipBaselineThreeNodeChain(t *testing.T) {
	lg := ledger.New(ledger.NewInmemStore(), nil)
	ov := sybil.New(sybil.DefaultConfig(), nil)

	var seedA, seedB, seedC [crypto.Size]byte
	seedA[0], seedB[0], seedC[0] = 1, 2, 3

	e1 := ledger.NewSignedEvent(seedA, crypto.ZeroDigest, 1, crypto.Hash([]byte("1")))
	d1 := mustLink(t, lg, e1)
	ov.Observe(lg, 1, d1)

	e2 := ledger.NewSignedEvent(seedB, d1, 3, crypto.Hash([]byte("2")))
	d2 := mustLink(t, lg, e2)
	ov.Observe(lg, 3, d2)

	e3 := ledger.NewSignedEvent(seedC, d2, 5, crypto.Hash([]byte("3")))
	d3 := mustLink(t, lg, e3)
	ov.Observe(lg, 5, d3)

	tick := uint64(50)
	got, ok := SelectPreferredTip(lg, ov, tick, 100)
	require.True(t, ok)
	assert.Equal(t, d3, got)

	gotUnit, ok := SelectPreferredTipUnit(lg, tick, 100)
	require.True(t, ok)
	assert.Equal(t, d3, gotUnit)
}

func TestSelectPreferredTipEmptyLedger(t *testing.T) {
	lg := ledger.New(ledger.NewInmemStore(), nil)
	ov := sybil.New(sybil.DefaultConfig(), nil)
	_, ok := SelectPreferredTip(lg, ov, 1, 10)
	assert.False(t, ok)
}

func TestSelectPreferredTipDeterministicTieBreak(t *testing.T) {
	lg := ledger.New(ledger.NewInmemStore(), nil)
	ov := sybil.New(sybil.DefaultConfig(), nil)

	// Two never-observed authors: both branches score 0, so the selector
	// must fall back to the lexicographically smaller digest.
	var seedA, seedB [crypto.Size]byte
	seedA[0], seedB[0] = 5, 6

	ea := ledger.NewSignedEvent(seedA, crypto.ZeroDigest, 1, crypto.Hash([]byte("a")))
	da := mustLink(t, lg, ea)
	eb := ledger.NewSignedEvent(seedB, crypto.ZeroDigest, 1, crypto.Hash([]byte("b")))
	db := mustLink(t, lg, eb)

	got, ok := SelectPreferredTip(lg, ov, 1, 10)
	require.True(t, ok)

	want := da
	if db.Less(da) {
		want = db
	}
	assert.Equal(t, want, got)
}

func TestSelectorWalkBound(t *testing.T) {
	lg := ledger.New(ledger.NewInmemStore(), nil)
	ov := sybil.New(sybil.DefaultConfig(), nil)

	var seed [crypto.Size]byte
	seed[0] = 9

	prev := crypto.ZeroDigest
	var tip ledger.Digest
	for i := uint64(0); i < 200; i++ {
		e := ledger.NewSignedEvent(seed, prev, i, crypto.Hash([]byte{byte(i), byte(i >> 8)}))
		d := mustLink(t, lg, e)
		ov.Observe(lg, i, d)
		prev = d
		tip = d
	}

	got, ok := SelectPreferredTip(lg, ov, 300, 100)
	require.True(t, ok)
	assert.Equal(t, tip, got)
}
