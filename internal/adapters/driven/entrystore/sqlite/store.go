// Package sqlite provides a local entry store for development and offline
// use. Embeddings are stored as little-endian float32 blobs and similarity
// is computed brute force, which is fine at journal scale.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.EntryStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id         TEXT PRIMARY KEY,
	client_id  TEXT,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL,
	embedding  BLOB
);
CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(date);
`

// Store executes retrieval against a local SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is the seed shape for local databases.
type Entry struct {
	ID        string
	ClientID  string
	Title     string
	Content   string
	Date      string
	Embedding []float32
}

// NewStore creates a SQLite entry store at the given path. An empty path
// defaults to ~/.introspect/data/entries.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".introspect", "data", "entries.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed inserts or replaces entries. Intended for local setups and tests.
func (s *Store) Seed(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		var clientID any
		if e.ClientID != "" {
			clientID = e.ClientID
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO journal_entries (id, client_id, title, content, date, embedding)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, clientID, e.Title, e.Content, e.Date, float32SliceToBytes(e.Embedding))
		if err != nil {
			return fmt.Errorf("seeding entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// SimilaritySearch ranks entries against the query embedding in memory.
// The auth token is accepted for interface parity; a local database has a
// single owner and no row-level security.
func (s *Store) SimilaritySearch(ctx context.Context, q driven.SimilarityQuery, _ string) ([]domain.EntryRecord, error) {
	query, args := listQuery(q.StartDate, q.EndDate, 0)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	type scored struct {
		rec   domain.EntryRecord
		score float64
	}
	var candidates []scored

	for rows.Next() {
		rec, embedding, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if len(embedding) == 0 || len(embedding) != len(q.Embedding) {
			continue
		}

		score := similarity(q.Metric, q.Embedding, embedding)
		if q.MinSimilarity != nil && score < *q.MinSimilarity {
			continue
		}
		sim := score
		rec.Similarity = &sim
		candidates = append(candidates, scored{rec: rec, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > q.MatchCount {
		candidates = candidates[:q.MatchCount]
	}

	records := make([]domain.EntryRecord, len(candidates))
	for i, c := range candidates {
		records[i] = c.rec
	}
	return records, nil
}

// DateRangeList returns entries within the bounds, newest first.
func (s *Store) DateRangeList(ctx context.Context, matchCount int, start, end *time.Time, _ string) ([]domain.EntryRecord, error) {
	query, args := listQuery(start, end, matchCount)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var records []domain.EntryRecord
	for rows.Next() {
		rec, _, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return records, nil
}

// FetchByIDs returns the named entries in the requested order.
func (s *Store) FetchByIDs(ctx context.Context, ids []string, _ string) ([]domain.EntryRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, title, content, date, embedding FROM journal_entries
		 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.EntryRecord)
	for rows.Next() {
		rec, _, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	ordered := make([]domain.EntryRecord, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// listQuery builds the shared SELECT with optional date bounds. A limit of 0
// means unbounded (similarity search ranks before capping).
func listQuery(start, end *time.Time, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, client_id, title, content, date, embedding FROM journal_entries`)

	var conds []string
	var args []any
	if start != nil {
		conds = append(conds, "date >= ?")
		args = append(args, domain.DateString(start))
	}
	if end != nil {
		conds = append(conds, "date <= ?")
		args = append(args, domain.DateString(end))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY date DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	return sb.String(), args
}

// scanEntry reads one row. The embedding is returned separately and never
// placed on the record.
func scanEntry(rows *sql.Rows) (domain.EntryRecord, []float32, error) {
	var rec domain.EntryRecord
	var clientID sql.NullString
	var blob []byte
	if err := rows.Scan(&rec.ID, &clientID, &rec.Title, &rec.Content, &rec.Date, &blob); err != nil {
		return domain.EntryRecord{}, nil, fmt.Errorf("scanning entry: %w", err)
	}
	if clientID.Valid {
		rec.ClientID = &clientID.String
	}
	return rec, bytesToFloat32Slice(blob), nil
}

// similarity computes the ranking score for the metric. L2 distance is
// negated so a single descending sort works for every metric.
func similarity(metric domain.Metric, a, b []float32) float64 {
	switch metric {
	case domain.MetricL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return -math.Sqrt(sum)
	case domain.MetricInnerProduct:
		return dot(a, b)
	default: // cosine
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// float32SliceToBytes converts a float32 slice to a little-endian byte blob.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte blob back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
