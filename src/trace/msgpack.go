package trace

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// DumpMsgpack renders rows with the same field shape as DumpJSON (D5 of
// SPEC_FULL.md) but in msgpack, for external provers that prefer a denser
// binary trace over the canonical JSON form.
func DumpMsgpack(rows []Row) ([]byte, error) {
	wire := make([]wireRow, len(rows))
	for i, r := range rows {
		wire[i] = toWire(r)
	}

	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, &codec.MsgpackHandle{})
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadMsgpack parses the msgpack trace encoding back into Rows.
func LoadMsgpack(data []byte) ([]Row, error) {
	var wire []wireRow
	dec := codec.NewDecoder(bytes.NewReader(data), &codec.MsgpackHandle{})
	if err := dec.Decode(&wire); err != nil {
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
