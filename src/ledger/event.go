package ledger

import (
	"encoding/binary"

	"github.com/mosaicnetworks/dvel/src/crypto"
)

// Version is the only event-schema version this implementation accepts.
const Version uint8 = 1

// Digest identifies an event by its canonical hash. It is an alias of
// crypto.Digest so that every package shares one comparable, orderable type.
type Digest = crypto.Digest

// Event is the sole first-class record of the ledger (spec.md §3).
type Event struct {
	Version     uint8
	PrevHash    Digest
	Author      [crypto.Size]byte
	Timestamp   uint64
	PayloadHash Digest
	Signature   [crypto.SignatureSize]byte
}

// CanonicalBytes serializes the event exactly as spec.md §6 requires:
// version (1) ‖ prev_hash (32) ‖ author (32) ‖ timestamp (8, LE) ‖
// payload_hash (32) [‖ signature (64)]. withSignature controls whether the
// trailing 64 bytes are included; signing uses false, hashing uses true.
func (e *Event) CanonicalBytes(withSignature bool) []byte {
	size := 1 + crypto.Size + crypto.Size + 8 + crypto.Size
	if withSignature {
		size += crypto.SignatureSize
	}
	buf := make([]byte, 0, size)
	buf = append(buf, e.Version)
	buf = append(buf, e.PrevHash[:]...)
	buf = append(buf, e.Author[:]...)
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], e.Timestamp)
	buf = append(buf, ts[:]...)
	buf = append(buf, e.PayloadHash[:]...)
	if withSignature {
		buf = append(buf, e.Signature[:]...)
	}
	return buf
}

// Digest computes the event's 32-byte identity over all six canonical
// fields, including the signature (spec.md §4.1).
func (e *Event) Digest() Digest {
	return crypto.Hash(e.CanonicalBytes(true))
}

// Sign signs the event's signature-free canonical bytes with the Ed25519 key
// derived from seed and stores the result in e.Signature.
func (e *Event) Sign(seed [crypto.Size]byte) {
	sig := crypto.Sign(seed, e.CanonicalBytes(false))
	e.Signature = sig
}

// Verify reports whether e.Signature is a valid Ed25519 signature over the
// event's signature-free canonical bytes under e.Author.
func (e *Event) Verify() bool {
	return crypto.Verify(e.Author, e.CanonicalBytes(false), e.Signature)
}

// NewSignedEvent builds, signs and returns an event authored by the key
// derived from seed. payloadHash is opaque to the ledger core.
func NewSignedEvent(seed [crypto.Size]byte, prev Digest, timestamp uint64, payloadHash Digest) Event {
	e := Event{
		Version:     Version,
		PrevHash:    prev,
		Author:      crypto.DerivePublicKey(seed),
		Timestamp:   timestamp,
		PayloadHash: payloadHash,
	}
	e.Sign(seed)
	return e
}
