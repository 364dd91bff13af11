// Package sqlitestore provides a durable NodeStore backed by SQLite.
//
// Nodes live in a single table keyed by their mmr index. The database is
// opened in WAL mode so that readers are never blocked by an in-flight
// append. One process must own appends; the store serializes them internally
// but does nothing about a second writer on the same file.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/paritytech/arber/mmr"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	i     INTEGER PRIMARY KEY,
	value BLOB NOT NULL
);
`

type Store struct {
	db *sql.DB

	mu   sync.Mutex
	size uint64
}

// Open opens or creates the database at path and restores the node count.
// A table whose indices are not the contiguous range [0, count) is reported
// as mmr.ErrCorruptedStore.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	var count uint64
	var maxIndex int64
	err = db.QueryRow(`SELECT COUNT(*), COALESCE(MAX(i), -1) FROM nodes`).Scan(&count, &maxIndex)
	if err != nil {
		db.Close()
		return nil, err
	}
	if count != uint64(maxIndex+1) {
		db.Close()
		return nil, fmt.Errorf(
			"%w: %d nodes but max index %d, the range is not contiguous",
			mmr.ErrCorruptedStore, count, maxIndex)
	}

	return &Store{db: db, size: count}, nil
}

func (s *Store) Append(value []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.size
	if _, err := s.db.Exec(`INSERT INTO nodes (i, value) VALUES (?, ?)`, int64(i), value); err != nil {
		return 0, err
	}
	s.size++
	return i, nil
}

func (s *Store) Get(i uint64) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM nodes WHERE i = ?`, int64(i)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: index %d", mmr.ErrNotFound, i)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Store) Close() error {
	return s.db.Close()
}
