// Package savestore keeps gob-encoded values in a single sqlite table.
package savestore

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrBadName  = errors.New("bad name for store")
	ErrNotFound = errors.New("value not found")
)

type Store struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_') {
			return false
		}
	}
	return true
}

// Open opens (creating if needed) the sqlite database at path and a store
// table called name inside it.
func Open(path, name string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s, err := New(db, name)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New creates the table name in db if it does not exist yet. name may only
// contain Latin letters and underscores since it is spliced into the queries.
func New(db *sql.DB, name string) (*Store, error) {
	if !validName(name) {
		return nil, ErrBadName
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ` + name + ` (
	key		TEXT PRIMARY KEY,
	value	BLOB
);`)
	if err != nil {
		return nil, err
	}
	return &Store{name: name, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the value stored under key into value, which must be a pointer
// or nil. A nil value only checks that key exists.
func (s *Store) Get(key string, value any) error {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM `+s.name+` WHERE key = ?;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(value)
}

// Set inserts a new key-value pair or updates an existing one.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO `+s.name+` (key, value)
VALUES (?, ?)
ON CONFLICT(key)
DO UPDATE SET value = excluded.value;`,
		key, buf.Bytes())
	return err
}

// Delete removes key without checking that it existed.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM `+s.name+` WHERE key = ?;`, key)
	return err
}

func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM ` + s.name + `;`).Scan(&n)
	return n, err
}

func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM ` + s.name + ` ORDER BY key;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
