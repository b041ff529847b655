// Package sessionlog appends one row per translated stroke to a SQLite
// database, for postmortem debugging of a steno session (what did stroke N
// do, and did it get undone). It is optional: a daemon started with no
// session log path simply never touches this package.
package sessionlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// schema is the session log's table: one row per Translate call.
const schema = `
CREATE TABLE IF NOT EXISTS strokes (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ns    INTEGER NOT NULL,
    chord           TEXT NOT NULL,
    wrote           TEXT,
    retract_count   INTEGER NOT NULL,
    was_undo        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_strokes_timestamp ON strokes(timestamp_ns);
`

// Store is the session log's SQLite-backed writer.
type Store struct {
	db *sql.DB
}

// Open opens or creates the session log database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("sessionlog: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sessionlog: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessionlog: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Entry is one logged stroke.
type Entry struct {
	TimestampNs  int64
	Chord        string
	Wrote        string
	RetractCount int
	WasUndo      bool
}

// Append inserts e as the next row in the log.
func (s *Store) Append(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO strokes (timestamp_ns, chord, wrote, retract_count, was_undo)
		 VALUES (?, ?, ?, ?, ?)`,
		e.TimestampNs, e.Chord, e.Wrote, e.RetractCount, boolToInt(e.WasUndo),
	)
	if err != nil {
		return fmt.Errorf("sessionlog: append: %w", err)
	}
	return nil
}

// Recent returns the last n logged strokes, oldest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT timestamp_ns, chord, wrote, retract_count, was_undo
		 FROM strokes ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var wasUndo int
		var wrote sql.NullString
		if err := rows.Scan(&e.TimestampNs, &e.Chord, &wrote, &e.RetractCount, &wasUndo); err != nil {
			return nil, fmt.Errorf("sessionlog: scan row: %w", err)
		}
		e.Wrote = wrote.String
		e.WasUndo = wasUndo != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionlog: iterate rows: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
