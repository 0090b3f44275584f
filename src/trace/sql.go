package trace

import (
	"database/sql"

	// Registers the "postgres" driver with database/sql; never referenced
	// directly, per the standard lib/pq usage pattern.
	_ "github.com/lib/pq"
)

// SQLRecorder is the optional Postgres-backed Sink (D4 of SPEC_FULL.md),
// for deployments that want trace rows durable and queryable outside the
// process, alongside the default in-memory Recorder.
type SQLRecorder struct {
	db *sql.DB
}

// NewSQLRecorder opens dsn (a standard "postgres://..." connection string)
// and ensures the trace table exists.
func NewSQLRecorder(dsn string) (*SQLRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}

	const schema = `
CREATE TABLE IF NOT EXISTS dvel_trace_rows (
	id SERIAL PRIMARY KEY,
	version SMALLINT NOT NULL,
	prev_hash TEXT NOT NULL,
	author TEXT NOT NULL,
	timestamp BIGINT NOT NULL,
	payload_hash TEXT NOT NULL,
	signature TEXT NOT NULL,
	parent_present BOOLEAN NOT NULL,
	ancestor_check_ok BOOLEAN NOT NULL,
	quarantined_until_before BIGINT NOT NULL,
	quarantined_until_after BIGINT NOT NULL,
	merkle_root TEXT,
	preferred_tip TEXT,
	author_weight_fp BIGINT NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}

	return &SQLRecorder{db: db}, nil
}

// Append implements Sink by inserting one row into dvel_trace_rows.
func (s *SQLRecorder) Append(row Row) error {
	w := toWire(row)

	const insert = `
INSERT INTO dvel_trace_rows (
	version, prev_hash, author, timestamp, payload_hash, signature,
	parent_present, ancestor_check_ok,
	quarantined_until_before, quarantined_until_after,
	merkle_root, preferred_tip, author_weight_fp
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.db.Exec(insert,
		w.Version, w.PrevHash, w.Author, w.Timestamp, w.PayloadHash, w.Signature,
		w.ParentPresent, w.AncestorCheckOK,
		w.QuarantinedUntilBefore, w.QuarantinedUntilAfter,
		nullableString(w.MerkleRoot), nullableString(w.PreferredTip), w.AuthorWeightFP,
	)
	return err
}

// Close releases the underlying database connection.
func (s *SQLRecorder) Close() error {
	return s.db.Close()
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
