package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

func TestSeenCacheContainsAfterAdd(t *testing.T) {
	c := newSeenCache(4)
	var d ledger.Digest
	d[0] = 1

	assert.False(t, c.Contains(d))
	c.Add(d)
	assert.True(t, c.Contains(d))
}

func TestSeenCacheClearsWhollyWhenFull(t *testing.T) {
	c := newSeenCache(2)
	var d1, d2, d3 ledger.Digest
	d1[0], d2[0], d3[0] = 1, 2, 3

	c.Add(d1)
	c.Add(d2)
	assert.True(t, c.Contains(d1))
	assert.True(t, c.Contains(d2))

	// Adding a third entry while full clears the whole cache first, per
	// spec.md §9(b): this is not an LRU eviction.
	c.Add(d3)
	assert.False(t, c.Contains(d1))
	assert.False(t, c.Contains(d2))
	assert.True(t, c.Contains(d3))
}
