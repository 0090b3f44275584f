// Package crypto implements the canonical hash and the Ed25519 signing
// primitives shared by every other DVEL package. The hash function is fixed
// once per deployment; every peer that wants byte-identical digests must
// link against the same implementation of Hash.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the width, in bytes, of a digest, a seed, a public key and half of
// a signature. Every fixed-size field in an Event uses this package's Size
// or SignatureSize.
const Size = 32

// SignatureSize is the width, in bytes, of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Digest is a 32-byte BLAKE3 hash, used both as an event's identity and as a
// node in the ledger's Merkle tree.
type Digest [Size]byte

// ZeroDigest is the all-zero sentinel that marks a genesis parent.
var ZeroDigest Digest

// IsZero reports whether d is the all-zero sentinel.
func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

// Less orders digests lexicographically over their raw bytes. Every
// deterministic ordering in the system (tip iteration, Merkle leaf order)
// goes through this method so that two conforming peers always agree.
func (d Digest) Less(other Digest) bool {
	for i := 0; i < Size; i++ {
		if d[i] != other[i] {
			return d[i] < other[i]
		}
	}
	return false
}

// Hex renders the digest as a lowercase hex string, for logs and traces.
func (d Digest) Hex() string {
	return fmt.Sprintf("%x", d[:])
}

// Hash computes the deployment-fixed 32-byte digest of data. It is the only
// function in the system that knows which concrete hash is in use; every
// other package only ever calls Hash.
func Hash(data []byte) Digest {
	h := blake3.New()
	h.Write(data) //nolint:errcheck // blake3.Hasher.Write never errors
	var d Digest
	copy(d[:], h.Sum(nil)[:Size])
	return d
}

// HashPair hashes the concatenation of two digests, in argument order. Used
// to build interior Merkle nodes.
func HashPair(left, right Digest) Digest {
	buf := make([]byte, 0, 2*Size)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return Hash(buf)
}

// GenerateSeed returns a fresh random 32-byte Ed25519 seed.
func GenerateSeed() ([Size]byte, error) {
	var seed [Size]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("crypto: generate seed: %w", err)
	}
	return seed, nil
}

// DerivePublicKey returns the Ed25519 public key for a 32-byte seed, per
// spec.md §6: "the first 32 bytes of the secret interpreted as a seed".
func DerivePublicKey(seed [Size]byte) [Size]byte {
	priv := ed25519.NewKeyFromSeed(seed[:])
	var pub [Size]byte
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return pub
}

// Sign signs message with the Ed25519 key derived from seed and returns the
// 64-byte signature.
func Sign(seed [Size]byte, message []byte) [SignatureSize]byte {
	priv := ed25519.NewKeyFromSeed(seed[:])
	sig := ed25519.Sign(priv, message)
	var out [SignatureSize]byte
	copy(out[:], sig)
	return out
}

// Verify reports whether sig is a valid Ed25519 signature of message under
// author.
func Verify(author [Size]byte, message []byte, sig [SignatureSize]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(author[:]), message, sig[:])
}
