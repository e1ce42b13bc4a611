package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/report"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite stats cache: stored coverage records, their unknown
// token counts, and vocabulary word counts.
type DB struct {
	db *sql.DB
}

// StatsRecord is one stored document with its derived unknown-token count.
type StatsRecord struct {
	DocID     string
	Partition paper.Partition
	Paper     paper.Paper
	Unknown   int
}

// CellRow is a (label, partition) aggregate computed in SQL.
type CellRow struct {
	Label     string          `json:"label"`
	Partition paper.Partition `json:"partition"`
	Documents int             `json:"documents"`
	Unknown   int             `json:"unknown"`
}

// SearchHit is a document matched by a full-text query.
type SearchHit struct {
	DocID          string          `json:"doc_id"`
	Title          string          `json:"title,omitempty"`
	Classification string          `json:"classification"`
	Partition      paper.Partition `json:"partition"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS docs (
			doc_id TEXT PRIMARY KEY,
			partition TEXT NOT NULL,
			classification TEXT NOT NULL,
			title TEXT,
			year INTEGER,
			abstract_json TEXT NOT NULL,
			unk_count INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_docs_cell ON docs(classification, partition);

		CREATE TABLE IF NOT EXISTS word_counts (
			word TEXT PRIMARY KEY,
			count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS _meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- Full-text search over abstracts (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			doc_id,
			title,
			abstract
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the cache and loads records and word counts in a single
// transaction. It returns the number of documents stored.
func (d *DB) Rebuild(records []StatsRecord, words map[string]int) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"docs", "docs_fts", "word_counts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	docStmt, err := tx.Prepare(`
		INSERT INTO docs (doc_id, partition, classification, title, year, abstract_json, unk_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing docs insert: %w", err)
	}
	defer docStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO docs_fts (doc_id, title, abstract) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, r := range records {
		abstractJSON, err := json.Marshal(r.Paper.Abstract)
		if err != nil {
			return 0, fmt.Errorf("marshaling abstract for %s: %w", r.DocID, err)
		}
		_, err = docStmt.Exec(
			r.DocID, string(r.Partition), r.Paper.Classification,
			nullableStringValue(r.Paper.Title), r.Paper.Year,
			string(abstractJSON), r.Unknown,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting doc %s: %w", r.DocID, err)
		}
		if _, err := ftsStmt.Exec(r.DocID, r.Paper.Title, strings.Join(r.Paper.Abstract, " ")); err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", r.DocID, err)
		}
	}

	wordStmt, err := tx.Prepare(`INSERT INTO word_counts (word, count) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing word insert: %w", err)
	}
	defer wordStmt.Close()

	for w, c := range words {
		if _, err := wordStmt.Exec(w, c); err != nil {
			return 0, fmt.Errorf("inserting word %s: %w", w, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(records), nil
}

// MetaSourceKey is the _meta key describing the inputs of the last rebuild.
const MetaSourceKey = "source_key"

// GetMeta returns the value stored under key, or "" when absent.
func (d *DB) GetMeta(key string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM _meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMeta stores value under key.
func (d *DB) SetMeta(key, value string) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Count returns the number of stored documents.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM docs").Scan(&count)
	return count, err
}

// GetDoc returns the stored paper and partition for docID, or nil when absent.
func (d *DB) GetDoc(docID string) (*StatsRecord, error) {
	var r StatsRecord
	var part, abstractJSON string
	var title sql.NullString
	var year sql.NullInt64

	err := d.db.QueryRow(`
		SELECT doc_id, partition, classification, title, year, abstract_json, unk_count
		FROM docs WHERE doc_id = ?
	`, docID).Scan(&r.DocID, &part, &r.Paper.Classification, &title, &year, &abstractJSON, &r.Unknown)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	r.Partition = paper.Partition(part)
	r.Paper.ID = r.DocID
	r.Paper.Title = title.String
	if year.Valid {
		r.Paper.Year = int(year.Int64)
	}
	if err := json.Unmarshal([]byte(abstractJSON), &r.Paper.Abstract); err != nil {
		return nil, fmt.Errorf("parsing abstract JSON for %s: %w", r.DocID, err)
	}
	return &r, nil
}

// Cells aggregates document and unknown-token totals per label and partition.
// Only populated cells are returned, ordered by label then partition.
func (d *DB) Cells() ([]CellRow, error) {
	rows, err := d.db.Query(`
		SELECT classification, partition, COUNT(*), COALESCE(SUM(unk_count), 0)
		FROM docs
		GROUP BY classification, partition
		ORDER BY classification, partition DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregating cells: %w", err)
	}
	defer rows.Close()

	var cells []CellRow
	for rows.Next() {
		var c CellRow
		var part string
		if err := rows.Scan(&c.Label, &part, &c.Documents, &c.Unknown); err != nil {
			return nil, err
		}
		c.Partition = paper.Partition(part)
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// TopWords returns the most frequent vocabulary words, count descending and
// word ascending on ties.
func (d *DB) TopWords(limit int) ([]report.WordCount, error) {
	rows, err := d.db.Query(`SELECT word, count FROM word_counts ORDER BY count DESC, word ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing words: %w", err)
	}
	defer rows.Close()

	var words []report.WordCount
	for rows.Next() {
		var wc report.WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, err
		}
		words = append(words, wc)
	}
	return words, rows.Err()
}

// Search performs a full-text search over stored abstracts and titles.
func (d *DB) Search(query string, limit int) ([]SearchHit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT doc_id, title, classification, partition
		FROM docs
		WHERE doc_id IN (SELECT doc_id FROM docs_fts WHERE docs_fts MATCH ?)
		ORDER BY doc_id
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var title sql.NullString
		var part string
		if err := rows.Scan(&h.DocID, &title, &h.Classification, &part); err != nil {
			return nil, err
		}
		h.Title = title.String
		h.Partition = paper.Partition(part)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
