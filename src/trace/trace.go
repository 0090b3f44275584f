// Package trace implements spec.md §4.7 (component C7): an append-only,
// per-observation record of ledger/sybil state for offline, deterministic
// auditing by external proof tooling.
package trace

import (
	"time"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

// Row is one observation record (spec.md §4.7 and §6).
type Row struct {
	Event ledger.Event

	ParentPresent   bool
	AncestorCheckOK bool

	QuarantinedUntilBefore uint64
	QuarantinedUntilAfter  uint64

	MerkleRoot   *ledger.Digest
	PreferredTip *ledger.Digest

	AuthorWeightFP int64

	// ObservedAtWall is a purely cosmetic wall-clock timestamp for humans
	// reading a trace file. It carries no semantic weight: ticks are the
	// only clock the core logic ever consults (spec.md Non-goals).
	ObservedAtWall time.Time
}

// Sink is anything that durably records trace rows. Recorder (in-memory)
// and SQLRecorder (Postgres-backed) both satisfy it.
type Sink interface {
	Append(row Row) error
}

// MultiSink fans out one Row to every wrapped Sink, in order, per
// config.Config.TraceDSN's "written to this database in addition to the
// in-memory Recorder" contract. The first error short-circuits the rest.
type MultiSink struct {
	Sinks []Sink
}

// Append implements Sink.
func (m MultiSink) Append(row Row) error {
	for _, s := range m.Sinks {
		if err := s.Append(row); err != nil {
			return err
		}
	}
	return nil
}

// Recorder is the default in-memory, append-only Sink.
type Recorder struct {
	rows []Row
}

// NewRecorder builds an empty in-memory recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append implements Sink.
func (r *Recorder) Append(row Row) error {
	r.rows = append(r.rows, row)
	return nil
}

// Rows returns every recorded row, in append order.
func (r *Recorder) Rows() []Row {
	return r.rows
}
