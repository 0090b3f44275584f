package sim

import "github.com/mosaicnetworks/dvel/src/ledger"

// PendingPool is the node-local reassembly queue of spec.md §3/§4.6: events
// whose parent has not arrived yet, keyed by the parent's digest.
type PendingPool struct {
	byParent map[ledger.Digest][]Message
	total    int
	cap      int

	Dropped int
}

// NewPendingPool builds an empty pool bounded by capacity.
func NewPendingPool(capacity int) *PendingPool {
	return &PendingPool{
		byParent: make(map[ledger.Digest][]Message),
		cap:      capacity,
	}
}

// Add enqueues msg under parent. If the pool is already at capacity the
// insertion is dropped deterministically — newest-drop — and counted, per
// spec.md §4.6/§7 (PoolOverflow).
func (p *PendingPool) Add(parent ledger.Digest, msg Message) bool {
	if p.total >= p.cap {
		p.Dropped++
		return false
	}
	p.byParent[parent] = append(p.byParent[parent], msg)
	p.total++
	return true
}

// Drain removes and returns every message waiting on parent.
func (p *PendingPool) Drain(parent ledger.Digest) []Message {
	msgs, ok := p.byParent[parent]
	if !ok {
		return nil
	}
	delete(p.byParent, parent)
	p.total -= len(msgs)
	return msgs
}

// Len returns the total number of messages currently queued.
func (p *PendingPool) Len() int {
	return p.total
}
