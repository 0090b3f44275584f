// Package sybil implements spec.md §4.4 (component C4): the per-author
// weight function, equivocation detection, quarantine and warmup, all in
// fixed-point integer arithmetic so that two peers with the same observed
// history compute bit-identical weights.
package sybil

import (
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

// RateWindow and DecayWindow are the compile-time constants of the weight
// function (spec.md §6). They are not configuration knobs: the spec fixes
// them as part of the weight formula itself.
const (
	RateWindow  = 5
	DecayWindow = 10
)

// Config holds the per-overlay tunables of spec.md §4.4/§6. spec.md §4.4
// also lists max_link_walk as part of this configuration, but that knob
// only bounds the selector's ancestor walk (component C5); it lives on
// config.Config instead and is never consulted here.
type Config struct {
	WarmupTicks     uint64
	QuarantineTicks uint64
	FixedPointScale int64
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() Config {
	return Config{
		WarmupTicks:     4,
		QuarantineTicks: 12,
		FixedPointScale: 1000,
	}
}

// AuthorState is the per-author record of spec.md §3/§4.4.
type AuthorState struct {
	LastTimestamp        uint64
	hasPriorEvent        bool
	PrevTimestamp        uint64
	LastEventDigest      ledger.Digest
	LastPrevHash         ledger.Digest
	LatestTipDigest      ledger.Digest
	QuarantinedUntilTick uint64
	FirstSeenTick        uint64
}

// Overlay is the per-node sybil-resistance state. Per spec.md §9, authors
// are indexed by their full 32-byte public key, never by a truncated prefix.
type Overlay struct {
	cfg        Config
	authors    map[[32]byte]*AuthorState
	childCount map[ledger.Digest]int
	logger     *logrus.Entry
}

// New builds an empty overlay.
func New(cfg Config, logger *logrus.Entry) *Overlay {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Overlay{
		cfg:        cfg,
		authors:    make(map[[32]byte]*AuthorState),
		childCount: make(map[ledger.Digest]int),
		logger:     logger.WithField("component", "sybil"),
	}
}

// StateFor returns the AuthorState for author, creating it lazily with
// FirstSeenTick = tick on first observation, as spec.md §4.4 requires.
func (o *Overlay) StateFor(author [32]byte, tick uint64) *AuthorState {
	st, ok := o.authors[author]
	if !ok {
		st = &AuthorState{FirstSeenTick: tick}
		o.authors[author] = st
	}
	return st
}

// Peek returns the AuthorState for author without creating one, for tests
// and trace recording that must not mutate overlay state.
func (o *Overlay) Peek(author [32]byte) (*AuthorState, bool) {
	st, ok := o.authors[author]
	return st, ok
}

// Observe folds the event identified by digest into the overlay, per the
// five steps of spec.md §4.4. It is a no-op if the ledger does not contain
// the digest.
func (o *Overlay) Observe(lg *ledger.Ledger, tick uint64, digest ledger.Digest) {
	event, ok := lg.Get(digest)
	if !ok {
		return
	}

	st := o.StateFor(event.Author, tick)

	// Step 3: equivocation detection, using the PRE-update state.
	if st.LastPrevHash == event.PrevHash && st.LastEventDigest != digest && st.hasPriorEvent {
		newHorizon := tick + o.cfg.QuarantineTicks
		if newHorizon > st.QuarantinedUntilTick {
			st.QuarantinedUntilTick = newHorizon
		}
		o.logger.WithFields(logrus.Fields{
			"author":  hexAuthor(event.Author),
			"tick":    tick,
			"horizon": st.QuarantinedUntilTick,
		}).Warn("equivocation detected, quarantine extended")
	}

	// Step 4: update the rolling state.
	if st.hasPriorEvent {
		st.PrevTimestamp = st.LastTimestamp
	} else {
		// First event: no predecessor, so Δt is 0.
		st.PrevTimestamp = event.Timestamp
	}
	st.LastPrevHash = event.PrevHash
	st.LastEventDigest = digest
	st.LastTimestamp = event.Timestamp
	st.LatestTipDigest = digest
	st.hasPriorEvent = true

	// Step 5: fork-depth bookkeeping.
	o.childCount[event.PrevHash]++
}

// AuthorWeightFP returns the fixed-point weight of author at tick, per the
// formula of spec.md §4.4. It returns 0 during warmup, during quarantine, or
// for an author the overlay has never observed.
func (o *Overlay) AuthorWeightFP(tick uint64, author [32]byte) int64 {
	st, ok := o.authors[author]
	if !ok {
		return 0
	}

	if tick < st.FirstSeenTick+o.cfg.WarmupTicks {
		return 0
	}
	if tick < st.QuarantinedUntilTick {
		return 0
	}

	scale := o.cfg.FixedPointScale

	// rate_factor = min(1, Δt / RATE_WINDOW), Δt = 0 for an author's first
	// observed event.
	var deltaT uint64
	if st.hasPriorEvent && st.LastTimestamp > st.PrevTimestamp {
		deltaT = st.LastTimestamp - st.PrevTimestamp
	}
	rateFP := int64(deltaT) * scale / RateWindow
	if rateFP > scale {
		rateFP = scale
	}

	// fork_factor = 1 / (1 + fork_depth). fork_depth counts FORKS at the
	// author's latest tip's parent, i.e. children beyond the first
	// (spec.md §4.4's "child counter ... used as fork depth", disambiguated
	// in DESIGN.md: a parent with exactly one child is not itself a fork).
	forkDepth := o.childCount[st.LastPrevHash] - 1
	if forkDepth < 0 {
		forkDepth = 0
	}
	forkFP := scale / (1 + int64(forkDepth))

	// decay_factor = 1 / (1 + age/DECAY_WINDOW), reformulated as
	// DECAY_WINDOW / (DECAY_WINDOW + age) to avoid truncating age/DECAY_WINDOW
	// before the division; both forms are mathematically identical, and
	// every peer runs the same integer code, so determinism is unaffected.
	var age uint64
	if tick > st.LastTimestamp {
		age = tick - st.LastTimestamp
	}
	decayFP := (scale * DecayWindow) / (DecayWindow + int64(age))

	step1 := (rateFP * forkFP) / scale
	step2 := (step1 * decayFP) / scale

	return step2
}

// ChildCount exposes the fork-depth counter for a parent digest, for tests
// and the trace recorder.
func (o *Overlay) ChildCount(parent ledger.Digest) int {
	return o.childCount[parent]
}

func hexAuthor(a [32]byte) string {
	return ledger.Digest(a).Hex()
}
