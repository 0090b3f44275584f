package sim

import "github.com/mosaicnetworks/dvel/src/ledger"

// seenCache is the bounded "recently seen" digest set of spec.md §4.6
// (MAX_SEEN, default 8192). Per spec.md §9(b) it clears itself wholesale
// once full rather than evicting LRU: acceptable for determinism (every
// peer running the same code clears at the same size) but it does mean a
// digest can be reprocessed after a clear. We document this instead of
// silently switching to an LRU policy.
type seenCache struct {
	capacity int
	set      map[ledger.Digest]struct{}
}

func newSeenCache(capacity int) *seenCache {
	return &seenCache{
		capacity: capacity,
		set:      make(map[ledger.Digest]struct{}, capacity),
	}
}

// Contains reports whether d has been recorded.
func (c *seenCache) Contains(d ledger.Digest) bool {
	_, ok := c.set[d]
	return ok
}

// Add records d, clearing the whole cache first if it is already full.
func (c *seenCache) Add(d ledger.Digest) {
	if len(c.set) >= c.capacity {
		c.set = make(map[ledger.Digest]struct{}, c.capacity)
	}
	c.set[d] = struct{}{}
}
