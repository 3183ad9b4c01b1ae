package search

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// SQLiteStore keeps the search index in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the database at dbPath. Use ":memory:" for
// an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "open sqlite database").
			WithContext(logfields.KeyPath, dbPath).
			Build()
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryStore, "initialize search schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		url TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		abstract TEXT,
		parent_name TEXT,
		kind TEXT,
		usr TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entries_name ON entries(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Replace swaps the stored entries for idx in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, idx Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStore, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return errors.WrapError(err, errors.CategoryStore, "clear entries").Build()
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO entries (url, name, abstract, parent_name, kind, usr) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.WrapError(err, errors.CategoryStore, "prepare insert").Build()
	}
	defer stmt.Close()

	urls := make([]string, 0, len(idx))
	for url := range idx {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	for _, url := range urls {
		e := idx[url]
		if _, err := stmt.ExecContext(ctx, url, e.Name, e.Abstract, e.ParentName, e.Kind, e.USR); err != nil {
			return errors.WrapError(err, errors.CategoryStore, "insert entry").
				WithContext("url", url).
				Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.CategoryStore, "commit entries").Build()
	}
	return nil
}

// Lookup returns the entries with exactly this name.
func (s *SQLiteStore) Lookup(ctx context.Context, name string) ([]Entry, error) {
	return s.query(ctx, "SELECT url, name, abstract, parent_name, kind, usr FROM entries WHERE name = ? ORDER BY url", name)
}

// Search returns up to limit entries whose name contains term, ignoring
// ASCII case.
func (s *SQLiteStore) Search(ctx context.Context, term string, limit int) ([]Entry, error) {
	return s.query(ctx,
		"SELECT url, name, abstract, parent_name, kind, usr FROM entries WHERE instr(lower(name), lower(?)) > 0 ORDER BY name, url LIMIT ?",
		term, limit)
}

// Count is the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, errors.WrapError(err, errors.CategoryStore, "count entries").Build()
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "query entries").Build()
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var abstract, parent, kind, usr sql.NullString
		if err := rows.Scan(&e.URL, &e.Name, &abstract, &parent, &kind, &usr); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStore, "scan entry").Build()
		}
		e.Abstract, e.ParentName, e.Kind, e.USR = abstract.String, parent.String, kind.String, usr.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "iterate entries").Build()
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
