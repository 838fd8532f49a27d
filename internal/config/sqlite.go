package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriver = "sqlite"

const schemaSQL = `CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

const upsertSQL = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLiteStore keeps settings in a SQLite key/value table, one JSON encoded
// section per key.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// private in-memory store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	// An in-memory database lives as long as its one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// sections maps table keys to the parts of st they hold.
func sections(st *Settings) map[string]any {
	return map[string]any{
		"page":    &st.Page,
		"tabs":    &st.Tabs,
		"font":    &st.Font,
		"history": &st.History,
		"logging": &st.Logging,
	}
}

// Load implements Store. Keys that are not sections are ignored.
func (s *SQLiteStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Settings{}, ErrClosed
	}

	out := Defaults()
	secs := sections(&out)
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, fmt.Errorf("load settings: %w", err)
		}
		dst, ok := secs[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(value), dst); err != nil {
			return Settings{}, &ParseError{Path: s.path + "#" + key, Message: err.Error(), Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return out, nil
}

// Save implements Store. All sections are written in one transaction.
func (s *SQLiteStore) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for key, sec := range sections(&st) {
		data, err := json.Marshal(sec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if _, err := tx.Exec(upsertSQL, key, string(data), now); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
