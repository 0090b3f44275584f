package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/dvel/src/config"
	"github.com/mosaicnetworks/dvel/src/crypto"
	"github.com/mosaicnetworks/dvel/src/ledger"
	"github.com/mosaicnetworks/dvel/src/selector"
	"github.com/mosaicnetworks/dvel/src/sybil"
	"github.com/mosaicnetworks/dvel/src/trace"
	"github.com/mosaicnetworks/dvel/src/validation"
)

// Stats accumulates the metrics counters spec.md §7 calls user-visible
// failure reporting: the harness never panics or bubbles an error across
// nodes, so these counters are the only externally observable record of
// what a node rejected, absorbed, or dropped.
type Stats struct {
	LocalAppended  int
	RemoteAccepted int
	Rejected       int
	PendingAdded   int
	PendingDrained int
	PendingDropped int
}

// Node is the single-threaded, cooperative runtime of spec.md §4.6. It owns
// its ledger, validation tracker, sybil overlay, inbox, pending-parent pool
// and seen-cache exclusively: nothing here is shared with any other Node.
type Node struct {
	ID     string
	Seed   [crypto.Size]byte
	PubKey [crypto.Size]byte

	Ledger   *ledger.Ledger
	Tracker  *validation.Tracker
	Overlay  *sybil.Overlay
	Pending  *PendingPool
	Recorder trace.Sink

	cfg    *config.Config
	seen   *seenCache
	inbox  []Message
	logger *logrus.Entry

	Stats Stats
}

// NewNode builds a node identified by id, signing with the Ed25519 key
// derived from seed, bounded per cfg. The ledger store is an in-memory map
// unless cfg.Store is set, in which case it is a Badger database rooted at
// cfg.DatabaseDir (mirroring the teacher's Babble.initStore picking between
// NewInmemStore and LoadOrCreateBadgerStore off config.Store).
func NewNode(id string, seed [crypto.Size]byte, cfg *config.Config, recorder trace.Sink, logger *logrus.Entry) (*Node, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	logger = logger.WithField("node", id)

	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Node{
		ID:       id,
		Seed:     seed,
		PubKey:   crypto.DerivePublicKey(seed),
		Ledger:   ledger.New(store, logger),
		Tracker:  validation.NewTracker(),
		Overlay:  sybil.New(cfg.Sybil, logger),
		Pending:  NewPendingPool(cfg.MaxPendingTotal),
		Recorder: recorder,
		cfg:      cfg,
		seen:     newSeenCache(cfg.MaxSeen),
		logger:   logger,
	}, nil
}

// newStore picks the ledger.Store implementation per cfg.Store, the same
// branch the teacher's Babble.initStore makes between an in-memory store and
// a Badger-backed one.
func newStore(cfg *config.Config, logger *logrus.Entry) (ledger.Store, error) {
	if !cfg.Store {
		logger.Debug("created new in-mem store")
		return ledger.NewInmemStore(), nil
	}

	logger.WithField("path", cfg.DatabaseDir).Debug("opening badger-backed ledger store")
	store, err := ledger.NewBadgerStore(cfg.DatabaseDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// MakeEvent builds and signs a new event authored by this node, referencing
// prev as its parent (spec.md §4.6 make_event).
func (n *Node) MakeEvent(ts uint64, prev ledger.Digest, payloadTag string) ledger.Event {
	payloadHash := crypto.Hash([]byte(payloadTag))
	return ledger.NewSignedEvent(n.Seed, prev, ts, payloadHash)
}

// CurrentTipOrZero returns an arbitrary, deterministic current tip (the
// lexicographically smallest), or the zero digest if the ledger is empty.
func (n *Node) CurrentTipOrZero() ledger.Digest {
	tips := n.Ledger.Tips()
	if len(tips) == 0 {
		return crypto.ZeroDigest
	}
	return tips[0]
}

// PreferredTip asks the selector for this node's sybil-weighted preferred
// tip at tick now (spec.md §4.5), bounded by cfg.MaxLinkWalk.
func (n *Node) PreferredTip(now uint64) (ledger.Digest, bool) {
	return selector.SelectPreferredTip(n.Ledger, n.Overlay, now, n.cfg.MaxLinkWalk)
}

// InboxPush enqueues msg for this node to process on its next ProcessInbox
// call (spec.md §5: inter-node delivery is the bus's job, drain order is the
// node's).
func (n *Node) InboxPush(msg Message) {
	n.inbox = append(n.inbox, msg)
}

// LocalAppend links a locally-produced event directly, bypassing the
// seen-cache and validation pipeline (a node always trusts its own output),
// then observes it into the sybil overlay and returns its digest.
func (n *Node) LocalAppend(now uint64, e ledger.Event) ledger.Digest {
	digest, res, err := n.Ledger.Link(e)
	if err != nil {
		n.logger.WithError(err).Error("local append: store failure")
		return digest
	}
	if res == ledger.LinkOk {
		before := n.quarantinedUntil(e.Author)
		n.Overlay.Observe(n.Ledger, now, digest)
		n.seen.Add(digest)
		n.Stats.LocalAppended++
		n.recordTrace(now, e, true, res, before)
		n.drainChildren(now, digest)
	}
	return digest
}

// quarantinedUntil returns an author's current quarantine horizon, or 0 if
// the overlay has not observed them yet.
func (n *Node) quarantinedUntil(author [crypto.Size]byte) uint64 {
	st, ok := n.Overlay.Peek(author)
	if !ok {
		return 0
	}
	return st.QuarantinedUntilTick
}

// ProcessInbox drains every message currently queued, in FIFO arrival
// order — reversed when this node is the victim of a ReorderPolicy, per
// spec.md §4.6 ("the consumer interprets it by reversing its inbox-drain
// order for victim").
func (n *Node) ProcessInbox(now uint64, policy DeliveryPolicy) {
	msgs := n.inbox
	n.inbox = nil

	if rv, ok := policy.(reorderVictim); ok && rv.IsReorderVictim(n.ID) {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}

	for _, msg := range msgs {
		n.admit(now, msg)
	}
}

// admit runs the core admission path of spec.md §4.6 against a single
// remotely-received message.
func (n *Node) admit(now uint64, msg Message) {
	e := msg.Event
	digest := e.Digest()

	if n.seen.Contains(digest) {
		return
	}

	ctx := n.Tracker.ContextFor(e.Author)
	if err := validation.Validate(&e, ctx, n.cfg.Validation); err != nil {
		n.Stats.Rejected++
		n.logger.WithError(err).Debug("rejected event")
		n.recordTrace(now, e, false, ledger.LinkDuplicate, n.quarantinedUntil(e.Author))
		return
	}

	linked, res, err := n.Ledger.Link(e)
	if err != nil {
		n.logger.WithError(err).Error("admit: store failure")
		return
	}

	switch res {
	case ledger.LinkOk:
		before := n.quarantinedUntil(e.Author)
		n.Overlay.Observe(n.Ledger, now, linked)
		n.seen.Add(linked)
		n.Stats.RemoteAccepted++
		n.recordTrace(now, e, true, res, before)
		n.drainChildren(now, linked)
	case ledger.LinkDuplicate:
		// no-op, not a reject (spec.md §7).
	case ledger.LinkMissingParent:
		if n.Pending.Add(e.PrevHash, msg) {
			n.Stats.PendingAdded++
		} else {
			n.Stats.PendingDropped++
		}
	}
}

// drainChildren recursively admits every event that was waiting on parent,
// bounded by cfg.MaxDrainSteps total admissions (spec.md §4.6's "safety step
// bound" against pathological pending chains).
func (n *Node) drainChildren(now uint64, parent ledger.Digest) {
	steps := 0
	queue := []ledger.Digest{parent}

	for len(queue) > 0 && steps < n.cfg.MaxDrainSteps {
		next := queue[0]
		queue = queue[1:]

		waiting := n.Pending.Drain(next)
		for i, msg := range waiting {
			if steps >= n.cfg.MaxDrainSteps {
				// Hit the step bound mid-bucket: put the rest back
				// deterministically instead of dropping them (spec.md §8
				// reassembly-convergence).
				for _, leftover := range waiting[i:] {
					if n.Pending.Add(leftover.Event.PrevHash, leftover) {
						n.Stats.PendingAdded++
					} else {
						n.Stats.PendingDropped++
					}
				}
				return
			}
			steps++
			n.Stats.PendingDrained++

			digest := msg.Event.Digest()
			linked, res, err := n.Ledger.Link(msg.Event)
			if err != nil {
				n.logger.WithError(err).Error("drain: store failure")
				continue
			}
			// No re-validation on drain: msg was already validated before
			// being pended, and the per-author ctx only advances monotonically
			// in the meantime, so re-running it here can't change the result.
			if res == ledger.LinkOk {
				before := n.quarantinedUntil(msg.Event.Author)
				n.Overlay.Observe(n.Ledger, now, linked)
				n.seen.Add(linked)
				n.recordTrace(now, msg.Event, true, res, before)
				queue = append(queue, digest)
			}
		}
	}
}

func (n *Node) recordTrace(now uint64, e ledger.Event, parentPresent bool, res ledger.LinkResult, quarantinedBefore uint64) {
	if n.Recorder == nil {
		return
	}

	row := trace.Row{
		Event:                  e,
		ParentPresent:          parentPresent,
		AncestorCheckOK:        res == ledger.LinkOk,
		QuarantinedUntilBefore: quarantinedBefore,
		QuarantinedUntilAfter:  n.quarantinedUntil(e.Author),
		AuthorWeightFP:         n.Overlay.AuthorWeightFP(now, e.Author),
		ObservedAtWall:         time.Now(),
	}
	if root, ok := n.Ledger.MerkleRoot(); ok {
		row.MerkleRoot = &root
	}
	if tip, ok := n.PreferredTip(now); ok {
		row.PreferredTip = &tip
	}

	if err := n.Recorder.Append(row); err != nil {
		n.logger.WithError(err).Warn("trace append failed")
	}
}
