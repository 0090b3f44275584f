// Package ledger implements the content-addressed event store described in
// spec.md §4.2 (component C2): linkage, tip tracking and the Merkle digest
// over the set of stored events.
package ledger

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// LinkResult is the tri-state outcome of Link. Only Ok mutates the ledger;
// Duplicate and MissingParent are non-fatal, reported outcomes (spec.md
// §4.2, §7).
type LinkResult int

const (
	// LinkOk means the event was new and is now stored.
	LinkOk LinkResult = iota
	// LinkDuplicate means an event with this digest was already stored.
	LinkDuplicate
	// LinkMissingParent means PrevHash is non-zero and not yet stored.
	LinkMissingParent
)

func (r LinkResult) String() string {
	switch r {
	case LinkOk:
		return "Ok"
	case LinkDuplicate:
		return "Duplicate"
	case LinkMissingParent:
		return "MissingParent"
	default:
		return "Unknown"
	}
}

// Ledger is the append-only, content-addressed event store of spec.md §3.
// It owns no validation logic: any bytes that form a structurally-linkable
// event may be linked, regardless of signature or timestamp validity, which
// is checked one layer up by the validation package.
type Ledger struct {
	store  Store
	tips   map[Digest]struct{}
	logger *logrus.Entry
}

// New builds an empty ledger backed by store.
func New(store Store, logger *logrus.Entry) *Ledger {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Ledger{
		store:  store,
		tips:   make(map[Digest]struct{}),
		logger: logger.WithField("component", "ledger"),
	}
}

// Link computes the event's digest and, if admissible, inserts it into the
// store and updates the tip set (spec.md §4.2).
func (l *Ledger) Link(e Event) (Digest, LinkResult, error) {
	d := e.Digest()

	exists, err := l.store.Has(d)
	if err != nil {
		return d, LinkMissingParent, err
	}
	if exists {
		return d, LinkDuplicate, nil
	}

	if !e.PrevHash.IsZero() {
		parentPresent, err := l.store.Has(e.PrevHash)
		if err != nil {
			return d, LinkMissingParent, err
		}
		if !parentPresent {
			return d, LinkMissingParent, nil
		}
	}

	if err := l.store.Set(d, e); err != nil {
		return d, LinkMissingParent, err
	}

	delete(l.tips, e.PrevHash)
	l.tips[d] = struct{}{}

	l.logger.WithFields(logrus.Fields{
		"digest": d.Hex(),
		"prev":   e.PrevHash.Hex(),
	}).Debug("linked event")

	return d, LinkOk, nil
}

// Get performs an O(1) lookup of an event by digest.
func (l *Ledger) Get(d Digest) (Event, bool) {
	e, ok, err := l.store.Get(d)
	if err != nil {
		l.logger.WithError(err).Warn("store lookup failed")
		return Event{}, false
	}
	return e, ok
}

// Tips returns the current tip set in canonical (lexicographic) order, so
// that every caller that needs a deterministic iteration gets one for free.
func (l *Ledger) Tips() []Digest {
	out := make([]Digest, 0, len(l.tips))
	for d := range l.tips {
		out = append(out, d)
	}
	sortDigests(out)
	return out
}

// Len returns the number of events currently linked.
func (l *Ledger) Len() int {
	all, err := l.store.All()
	if err != nil {
		return 0
	}
	return len(all)
}

// Close releases the underlying store's resources.
func (l *Ledger) Close() error {
	return l.store.Close()
}

func sortDigests(ds []Digest) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Less(ds[j]) })
}
