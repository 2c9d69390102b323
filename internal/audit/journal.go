// Package audit records library events in a SQLite journal.
//
// Journal is a library listener: every event it handles becomes one row with
// the event kind, the document's ID (when the document has one), its title at
// the time of the event, and a timestamp. The journal never stores document
// content and is never read back into a library.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/leibooks/leibooks/internal/domain/library"
	"github.com/leibooks/leibooks/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS library_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL CHECK (kind IN ('added', 'removed', 'updated')),
	document_id TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_library_events_document ON library_events(document_id);
`

// Entry is one journal row.
type Entry struct {
	ID         int64        `json:"id"`
	Kind       library.Kind `json:"kind"`
	DocumentID string       `json:"document_id,omitempty"`
	Title      string       `json:"title"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// identified is implemented by documents that carry a stable ID.
type identified interface {
	ID() string
}

// Journal is a SQLite-backed library listener.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	log.Debug(log.CatAudit, "Opening journal", "path", path)
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		log.ErrorErr(log.CatAudit, "Failed to open journal", err, "path", path)
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// One writer keeps SQLite from reporting busy errors between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		log.ErrorErr(log.CatAudit, "Failed to ping journal", err, "path", path)
		return nil, fmt.Errorf("connecting to journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	log.Info(log.CatAudit, "Journal ready", "path", path)
	return &Journal{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Handle records e. A failed insert is returned, which stops delivery to the
// listeners registered after the journal.
func (j *Journal) Handle(e library.Event) error {
	if e.Document == nil {
		return nil
	}
	var docID string
	if d, ok := e.Document.(identified); ok {
		docID = d.ID()
	}

	_, err := j.db.Exec(
		`INSERT INTO library_events (kind, document_id, title, occurred_at) VALUES (?, ?, ?, ?)`,
		string(e.Kind), docID, e.Document.Title(), j.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		log.ErrorErr(log.CatAudit, "Failed to record event", err, "kind", string(e.Kind), "title", e.Document.Title())
		return fmt.Errorf("recording %s event: %w", string(e.Kind), err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	rows, err := j.db.Query(
		`SELECT id, kind, document_id, title, occurred_at FROM library_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

// ForDocument returns every entry for the document ID, oldest first.
func (j *Journal) ForDocument(documentID string) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, kind, document_id, title, occurred_at FROM library_events WHERE document_id = ? ORDER BY id`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

// Count returns the number of recorded events.
func (j *Journal) Count() (int, error) {
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM library_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting journal: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e    Entry
			kind string
			at   string
		)
		if err := rows.Scan(&e.ID, &kind, &e.DocumentID, &e.Title, &at); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Kind = library.Kind(kind)
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parsing journal time %q: %w", at, err)
		}
		e.OccurredAt = ts
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}

var _ library.Listener = (*Journal)(nil)
