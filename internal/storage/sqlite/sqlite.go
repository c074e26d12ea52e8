package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

const (
	schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id       TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	story    TEXT NOT NULL DEFAULT '',
	date     TEXT NOT NULL DEFAULT '',
	photos   TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date DESC);`

	selectSQL = `SELECT id, title, story, date, photos FROM entries ORDER BY position`
	insertSQL = `INSERT INTO entries (id, position, title, story, date, photos) VALUES (?, ?, ?, ?, ?, ?)`
)

// Store keeps the diary in a libSQL file, one row per entry. position
// preserves the collection order between loads.
type Store struct {
	db *sql.DB
}

// New opens daybook.db under dataDir, creating the directory and schema as
// needed.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: data dir %s: %v", storage.ErrStorage, dataDir, err)
	}

	db, err := sql.Open("libsql", "file:"+filepath.Join(dataDir, "daybook.db"))
	if err != nil {
		return nil, fmt.Errorf("%w: opening daybook.db: %v", storage.ErrStorage, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling WAL mode: %v", storage.ErrStorage, err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("%w: creating schema: %v", storage.ErrStorage, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all entries in saved order.
func (s *Store) Load(ctx context.Context) ([]entry.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: reading entries: %v", storage.ErrStorage, err)
	}
	defer rows.Close()

	entries := []entry.Entry{}
	for rows.Next() {
		var (
			e            entry.Entry
			date, photos string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Story, &date, &photos); err != nil {
			return nil, fmt.Errorf("%w: reading entry row: %v", storage.ErrStorage, err)
		}
		e.Date = storage.ParseTimestamp(date)
		if e.Photo, err = decodePhotos(photos); err != nil {
			return nil, fmt.Errorf("%w: photos of %s: %v", storage.ErrCorrupt, e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading entries: %v", storage.ErrStorage, err)
	}
	return entries, nil
}

// Save replaces every row in a single transaction.
func (s *Store) Save(ctx context.Context, entries []entry.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", storage.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("%w: clearing entries: %v", storage.ErrStorage, err)
	}
	insert, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", storage.ErrStorage, err)
	}
	defer insert.Close()

	for pos, e := range entries {
		photos, err := encodePhotos(e.Photo)
		if err != nil {
			return fmt.Errorf("%w: photos of %s: %v", storage.ErrStorage, e.ID, err)
		}
		date := storage.FormatTimestamp(e.Date)
		if _, err := insert.ExecContext(ctx, e.ID, pos, e.Title, e.Story, date, photos); err != nil {
			return fmt.Errorf("%w: writing %s: %v", storage.ErrStorage, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", storage.ErrStorage, err)
	}
	return nil
}

// Photos are stored as a JSON array; an entry without photos has "[]".
func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	return string(b), err
}

func decodePhotos(s string) ([]string, error) {
	photos := []string{}
	if err := json.Unmarshal([]byte(s), &photos); err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []string{}
	}
	return photos, nil
}
