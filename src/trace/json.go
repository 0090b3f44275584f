package trace

import (
	"encoding/hex"
	"encoding/json"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

// wireRow is the exact JSON shape spec.md §6 mandates: byte arrays
// hex-encoded, field order preserved, null for absent optional fields. It
// exists only at the encoding boundary; Row stays the idiomatic Go shape.
type wireRow struct {
	Version     uint8  `json:"version"`
	PrevHash    string `json:"prev_hash"`
	Author      string `json:"author"`
	Timestamp   uint64 `json:"timestamp"`
	PayloadHash string `json:"payload_hash"`
	Signature   string `json:"signature"`

	ParentPresent   bool `json:"parent_present"`
	AncestorCheckOK bool `json:"ancestor_check_ok"`

	QuarantinedUntilBefore uint64 `json:"quarantined_until_before"`
	QuarantinedUntilAfter  uint64 `json:"quarantined_until_after"`

	MerkleRoot   *string `json:"merkle_root"`
	PreferredTip *string `json:"preferred_tip"`

	AuthorWeightFP int64 `json:"author_weight_fp"`
}

func toWire(r Row) wireRow {
	w := wireRow{
		Version:                r.Event.Version,
		PrevHash:               hex.EncodeToString(r.Event.PrevHash[:]),
		Author:                 hex.EncodeToString(r.Event.Author[:]),
		Timestamp:              r.Event.Timestamp,
		PayloadHash:            hex.EncodeToString(r.Event.PayloadHash[:]),
		Signature:              hex.EncodeToString(r.Event.Signature[:]),
		ParentPresent:          r.ParentPresent,
		AncestorCheckOK:        r.AncestorCheckOK,
		QuarantinedUntilBefore: r.QuarantinedUntilBefore,
		QuarantinedUntilAfter:  r.QuarantinedUntilAfter,
		AuthorWeightFP:         r.AuthorWeightFP,
	}
	if r.MerkleRoot != nil {
		h := hex.EncodeToString(r.MerkleRoot[:])
		w.MerkleRoot = &h
	}
	if r.PreferredTip != nil {
		h := hex.EncodeToString(r.PreferredTip[:])
		w.PreferredTip = &h
	}
	return w
}

func fromWire(w wireRow) (Row, error) {
	var r Row
	r.Event.Version = w.Version
	if err := decodeDigest(w.PrevHash, &r.Event.PrevHash); err != nil {
		return r, err
	}
	var author ledger.Digest
	if err := decodeDigest(w.Author, &author); err != nil {
		return r, err
	}
	r.Event.Author = author
	r.Event.Timestamp = w.Timestamp
	if err := decodeDigest(w.PayloadHash, &r.Event.PayloadHash); err != nil {
		return r, err
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return r, err
	}
	copy(r.Event.Signature[:], sig)

	r.ParentPresent = w.ParentPresent
	r.AncestorCheckOK = w.AncestorCheckOK
	r.QuarantinedUntilBefore = w.QuarantinedUntilBefore
	r.QuarantinedUntilAfter = w.QuarantinedUntilAfter
	r.AuthorWeightFP = w.AuthorWeightFP

	if w.MerkleRoot != nil {
		var d ledger.Digest
		if err := decodeDigest(*w.MerkleRoot, &d); err != nil {
			return r, err
		}
		r.MerkleRoot = &d
	}
	if w.PreferredTip != nil {
		var d ledger.Digest
		if err := decodeDigest(*w.PreferredTip, &d); err != nil {
			return r, err
		}
		r.PreferredTip = &d
	}
	return r, nil
}

func decodeDigest(s string, out *ledger.Digest) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	copy(out[:], b)
	return nil
}

// DumpJSON renders rows as the spec.md §6 JSON trace format: an array of
// row objects, hex-encoded byte fields, preserved field order. Two peers
// given identical rows MUST produce byte-identical output.
func DumpJSON(rows []Row) ([]byte, error) {
	wire := make([]wireRow, len(rows))
	for i, r := range rows {
		wire[i] = toWire(r)
	}
	return json.Marshal(wire)
}

// LoadJSON parses the spec.md §6 JSON trace format back into Rows. Wall
// clock information is not part of the wire format and is left zero.
func LoadJSON(data []byte) ([]Row, error) {
	var wire []wireRow
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	rows := make([]Row, len(wire))
	for i, w := range wire {
		r, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return rows, nil
}
