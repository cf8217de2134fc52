// Package sqlite is the production store.Store backend: one SQLite
// database file holding the three memory keyspaces (meta, vec, bit) as
// plain tables, with atomic cross-table writes via database/sql
// transactions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pierrec/lz4/v4"

	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/tier"
)

// compressionThreshold is the metadata-blob size, in bytes, above which the
// metadata envelope is zstd-compressed before being written to the meta
// table. Small envelopes are stored raw; compressing them would waste CPU
// for no space win. Metadata is written once per ingest and read for each
// Stage 1 survivor and each returned result; zstd trades a slower decode
// on those reads for a higher compression ratio.
const compressionThreshold = 512

// Store is the SQLite-backed store.Store implementation.
type Store struct {
	db       *sql.DB
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	vecBytes int
}

// lz4 compresses the vec table: Stage 2 fetches one full vector per Stage 1
// survivor on every search, so that path is decompressed far more often
// than it is written, and lz4's decode speed matters more there than
// zstd's ratio.
func lz4CompressFloats(v []float32) []byte {
	raw := encodeFloats(v)
	buf := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, buf, nil)
	if err != nil || n == 0 {
		// Incompressible or too small to benefit; store raw with a
		// zero-length prefix so decode can tell the two cases apart.
		return append([]byte{0, 0, 0, 0}, raw...)
	}
	prefixed := make([]byte, 4+n)
	binary.LittleEndian.PutUint32(prefixed, uint32(len(raw)))
	copy(prefixed[4:], buf[:n])
	return prefixed
}

func lz4DecompressFloats(blob []byte) ([]float32, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("sqlite: truncated vector blob")
	}
	rawLen := binary.LittleEndian.Uint32(blob)
	if rawLen == 0 {
		return decodeFloats(blob[4:]), nil
	}
	raw := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(blob[4:], raw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: decompressing vector: %w", err)
	}
	return decodeFloats(raw[:n]), nil
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a SQLite database at path and migrates its
// schema. dimension is the expected float-vector length; it is recorded on
// the Store but used by neither the schema nor any read or write (SQLite
// columns are untyped).
func Open(path string, dimension int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: pinging %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrating %s: %w", path, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: constructing zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: constructing zstd decoder: %w", err)
	}

	return &Store{db: db, enc: enc, dec: dec, vecBytes: dimension * 4}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS meta (
	id         BLOB PRIMARY KEY,
	envelope   BLOB NOT NULL,
	compressed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS vec (
	id     BLOB PRIMARY KEY,
	vector BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS bit (
	id  BLOB PRIMARY KEY,
	bit BLOB NOT NULL
);`
	_, err := db.Exec(ddl)
	return err
}

// metaEnvelope is the JSON shape of the meta table's envelope column,
// mirroring the {text, metadata, tier, expires_at} layout named in the
// storage contract.
type metaEnvelope struct {
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
	Tier      tier.Tier      `json:"tier"`
	ExpiresAt *int64         `json:"expires_at,omitempty"`
}

// Put writes the entry's three keyspace rows in a single transaction.
func (s *Store) Put(ctx context.Context, e store.Entry) error {
	envJSON, err := json.Marshal(metaEnvelope{
		Text:      e.Meta.Text,
		Metadata:  e.Meta.Metadata,
		Tier:      e.Meta.Tier,
		ExpiresAt: e.Meta.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("sqlite: marshaling metadata envelope: %w", err)
	}

	envelope, compressed := envJSON, false
	if len(envJSON) > compressionThreshold {
		envelope = s.enc.EncodeAll(envJSON, nil)
		compressed = true
	}

	vecBlob := lz4CompressFloats(e.Vector)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := e.ID[:]

	const metaQ = `INSERT INTO meta(id, envelope, compressed) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET envelope = excluded.envelope, compressed = excluded.compressed`
	if _, err := tx.ExecContext(ctx, metaQ, id, envelope, compressed); err != nil {
		return fmt.Errorf("sqlite: writing meta %s: %w", e.ID, err)
	}

	const vecQ = `INSERT INTO vec(id, vector) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET vector = excluded.vector`
	if _, err := tx.ExecContext(ctx, vecQ, id, vecBlob); err != nil {
		return fmt.Errorf("sqlite: writing vec %s: %w", e.ID, err)
	}

	const bitQ = `INSERT INTO bit(id, bit) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET bit = excluded.bit`
	if _, err := tx.ExecContext(ctx, bitQ, id, e.Bit); err != nil {
		return fmt.Errorf("sqlite: writing bit %s: %w", e.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing put %s: %w", e.ID, err)
	}
	return nil
}

// GetMeta returns the decoded metadata envelope for id.
func (s *Store) GetMeta(ctx context.Context, id uuid.UUID) (store.Meta, error) {
	var envelope []byte
	var compressed bool
	row := s.db.QueryRowContext(ctx, `SELECT envelope, compressed FROM meta WHERE id = ?`, id[:])
	if err := row.Scan(&envelope, &compressed); err != nil {
		if err == sql.ErrNoRows {
			return store.Meta{}, store.ErrNotFound
		}
		return store.Meta{}, fmt.Errorf("sqlite: reading meta %s: %w", id, err)
	}

	if compressed {
		decoded, err := s.dec.DecodeAll(envelope, nil)
		if err != nil {
			return store.Meta{}, fmt.Errorf("sqlite: decompressing meta %s: %w", id, err)
		}
		envelope = decoded
	}

	var env metaEnvelope
	if err := json.Unmarshal(envelope, &env); err != nil {
		return store.Meta{}, fmt.Errorf("sqlite: decoding meta %s: %w", id, err)
	}
	return store.Meta{Text: env.Text, Metadata: env.Metadata, Tier: env.Tier, ExpiresAt: env.ExpiresAt}, nil
}

// GetVector returns the full float vector for id.
func (s *Store) GetVector(ctx context.Context, id uuid.UUID) ([]float32, error) {
	var blob []byte
	row := s.db.QueryRowContext(ctx, `SELECT vector FROM vec WHERE id = ?`, id[:])
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: reading vec %s: %w", id, err)
	}
	v, err := lz4DecompressFloats(blob)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading vec %s: %w", id, err)
	}
	return v, nil
}

// GetBit returns the packed bit vector for id.
func (s *Store) GetBit(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var bit []byte
	row := s.db.QueryRowContext(ctx, `SELECT bit FROM bit WHERE id = ?`, id[:])
	if err := row.Scan(&bit); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: reading bit %s: %w", id, err)
	}
	return bit, nil
}

// Delete removes id's rows from all three tables in one transaction. It
// reports whether the id was present in the meta table beforehand.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM meta WHERE id = ?`, id[:])
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting meta %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking delete %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec WHERE id = ?`, id[:]); err != nil {
		return false, fmt.Errorf("sqlite: deleting vec %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bit WHERE id = ?`, id[:]); err != nil {
		return false, fmt.Errorf("sqlite: deleting bit %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing delete %s: %w", id, err)
	}
	return affected > 0, nil
}

// ScanBit reads every (id, bit) row inside a dedicated read transaction, so
// the result is a consistent point-in-time snapshot unaffected by writes
// that commit after the transaction starts.
func (s *Store) ScanBit(ctx context.Context) ([]store.BitEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning scan transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id, bit FROM bit`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning bit keyspace: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.BitEntry
	for rows.Next() {
		var idBytes, bit []byte
		if err := rows.Scan(&idBytes, &bit); err != nil {
			return nil, fmt.Errorf("sqlite: reading scan row: %w", err)
		}
		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decoding scanned id: %w", err)
		}
		out = append(out, store.BitEntry{ID: id, Bit: bit})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scan: %w", err)
	}
	return out, nil
}

// Close closes the underlying database connection and releases the zstd
// codec's background resources.
func (s *Store) Close() error {
	encErr := s.enc.Close()
	s.dec.Close()
	if encErr != nil {
		return encErr
	}
	return s.db.Close()
}

func encodeFloats(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out
}
