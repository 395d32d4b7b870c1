package kv

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// Store wraps one bbolt environment. All buckets a caller will ever open
// against it must be declared at Open time, created up front rather than
// lazily on first use.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if needed) the bbolt file at path and ensures
// every bucket in buckets exists.
func Open(path string, buckets [][]byte) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("kv: create data dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("kv: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the on-disk file path backing the store.
func (s *Store) Path() string { return s.path }

// Close closes the underlying environment.
func (s *Store) Close() error {
	return s.db.Close()
}

// View begins a read transaction, runs fn against it, and always rolls
// it back afterward (bbolt read transactions are always read-only).
func (s *Store) View(fn func(tx *ReadTx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&ReadTx{btx: btx})
	})
}

// Update begins a write transaction, runs fn against it, and commits if
// fn returns nil or rolls back (aborts) if it returns an error.
func (s *Store) Update(fn func(tx *WriteTx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&WriteTx{ReadTx: ReadTx{btx: btx}})
	})
}

// CopyTo streams a consistent snapshot of the store to dst, for backups
// and the upgrade runner's pre-migration snapshot.
func (s *Store) CopyTo(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("kv: create snapshot dir: %w", err)
	}
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(dst, 0o600)
	})
}
