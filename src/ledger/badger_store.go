package ledger

import (
	"github.com/dgraph-io/badger"

	"github.com/mosaicnetworks/dvel/src/crypto"
)

// eventEncodedSize is the fixed width of an event's on-disk encoding: the
// same bytes as CanonicalBytes(true), which is self-delimiting because every
// field has a fixed width.
const eventEncodedSize = 1 + crypto.Size + crypto.Size + 8 + crypto.Size + crypto.SignatureSize

// BadgerStore is the optional persistent Store, for deployments that want
// the ledger to survive a process restart. It keeps a full in-memory mirror
// for reads, the same way the teacher's BadgerStore wraps an InmemStore, and
// pushes every write through to Badger for durability.
type BadgerStore struct {
	mem *InmemStore
	db  *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database rooted at path and
// replays its contents into the in-memory mirror.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	s := &BadgerStore{mem: NewInmemStore(), db: db}
	if err := s.reload(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *BadgerStore) reload() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			d, e, err := decodeEvent(item.Key(), val)
			if err != nil {
				return err
			}
			if err := s.mem.Set(d, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeEvent(key, val []byte) (Digest, Event, error) {
	var d Digest
	copy(d[:], key)
	e, err := decodeEventBytes(val)
	return d, e, err
}

func decodeEventBytes(val []byte) (Event, error) {
	var e Event
	if len(val) != eventEncodedSize {
		return e, badger.ErrInvalidKey
	}
	off := 0
	e.Version = val[off]
	off++
	copy(e.PrevHash[:], val[off:off+crypto.Size])
	off += crypto.Size
	copy(e.Author[:], val[off:off+crypto.Size])
	off += crypto.Size
	// Timestamp is re-derived from the same 8 little-endian bytes the
	// canonical encoding wrote, decoded by leUint64 below.
	ts := val[off : off+8]
	off += 8
	copy(e.PayloadHash[:], val[off:off+crypto.Size])
	off += crypto.Size
	copy(e.Signature[:], val[off:off+crypto.SignatureSize])

	e.Timestamp = leUint64(ts)
	return e, nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Get implements Store.
func (s *BadgerStore) Get(d Digest) (Event, bool, error) {
	return s.mem.Get(d)
}

// Has implements Store.
func (s *BadgerStore) Has(d Digest) (bool, error) {
	return s.mem.Has(d)
}

// All implements Store.
func (s *BadgerStore) All() ([]Digest, error) {
	return s.mem.All()
}

// Set implements Store, writing through to the mirror and to Badger.
func (s *BadgerStore) Set(d Digest, e Event) error {
	if err := s.mem.Set(d, e); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(d[:], e.CanonicalBytes(true))
	})
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
