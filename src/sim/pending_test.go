package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

func TestPendingPoolDrainReturnsAndClears(t *testing.T) {
	pool := NewPendingPool(10)
	var parent ledger.Digest
	parent[0] = 1

	ok1 := pool.Add(parent, Message{Event: ledger.Event{Version: 1}})
	ok2 := pool.Add(parent, Message{Event: ledger.Event{Version: 2}})
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, 2, pool.Len())

	drained := pool.Drain(parent)
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, pool.Len())
	assert.Nil(t, pool.Drain(parent))
}

func TestPendingPoolDropsNewestOnOverflow(t *testing.T) {
	pool := NewPendingPool(1)
	var parent ledger.Digest
	parent[0] = 1

	assert.True(t, pool.Add(parent, Message{Event: ledger.Event{Version: 1}}))
	assert.False(t, pool.Add(parent, Message{Event: ledger.Event{Version: 2}}))
	assert.Equal(t, 1, pool.Dropped)
	assert.Equal(t, 1, pool.Len())
}
