// Package validation implements spec.md §4.3 (component C3): per-author
// stateful validation of version, signature and timestamp skew.
package validation

import (
	"fmt"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

// ErrorTag discriminates the validation error families of spec.md §7.
type ErrorTag int

const (
	// InvalidVersion means Event.Version is not the one accepted value.
	InvalidVersion ErrorTag = iota
	// InvalidSignature means the Ed25519 signature does not verify.
	InvalidSignature
	// TimestampNonMonotonic means the event's timestamp regressed further
	// than the configured backward-skew bound for its author.
	TimestampNonMonotonic
)

func (t ErrorTag) String() string {
	switch t {
	case InvalidVersion:
		return "InvalidVersion"
	case InvalidSignature:
		return "InvalidSignature"
	case TimestampNonMonotonic:
		return "TimestampNonMonotonic"
	default:
		return "Unknown"
	}
}

// Error is the tagged error type returned by Validate, in the style of the
// teacher's hashgraph.SelfParentError: one small struct, one discriminator.
type Error struct {
	Tag ErrorTag
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Tag, e.Msg)
}

// Is reports whether err is a validation Error tagged with tag.
func Is(err error, tag ErrorTag) bool {
	ve, ok := err.(*Error)
	return ok && ve.Tag == tag
}

// Config holds the process-wide validation tunable. spec.md §9 asks that
// this be threaded explicitly rather than held in a package-level global.
type Config struct {
	// MaxBackwardSkew bounds how far, in ticks, an author's timestamps may
	// regress before an event is rejected as non-monotonic.
	MaxBackwardSkew uint64
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() Config {
	return Config{MaxBackwardSkew: 1}
}

// Context is the per-author validation state of spec.md §3: the last
// accepted timestamp for that author. It is created lazily on first sight
// and never destroyed.
type Context struct {
	LastTimestamp uint64
}

// Tracker owns one Context per author, keyed by the full 32-byte public key
// (never truncated — spec.md §9 flags single-byte author indexing as a known
// bug to avoid reproducing).
type Tracker struct {
	contexts map[[32]byte]*Context
}

// NewTracker builds an empty per-author tracker.
func NewTracker() *Tracker {
	return &Tracker{contexts: make(map[[32]byte]*Context)}
}

// ContextFor returns the Context for author, creating it on first use.
func (t *Tracker) ContextFor(author [32]byte) *Context {
	ctx, ok := t.contexts[author]
	if !ok {
		ctx = &Context{}
		t.contexts[author] = ctx
	}
	return ctx
}

// Validate checks version, signature and timestamp monotonicity in that
// order (spec.md §4.3) against ctx, which belongs exclusively to e.Author.
// On success ctx.LastTimestamp advances; on any failure ctx is left
// untouched.
func Validate(e *ledger.Event, ctx *Context, cfg Config) error {
	if e.Version != ledger.Version {
		return &Error{Tag: InvalidVersion, Msg: fmt.Sprintf("got %d, want %d", e.Version, ledger.Version)}
	}

	if !e.Verify() {
		return &Error{Tag: InvalidSignature, Msg: "Ed25519 verification failed"}
	}

	if e.Timestamp+cfg.MaxBackwardSkew < ctx.LastTimestamp {
		return &Error{
			Tag: TimestampNonMonotonic,
			Msg: fmt.Sprintf("timestamp %d + skew %d < last %d", e.Timestamp, cfg.MaxBackwardSkew, ctx.LastTimestamp),
		}
	}

	if e.Timestamp > ctx.LastTimestamp {
		ctx.LastTimestamp = e.Timestamp
	}

	return nil
}
