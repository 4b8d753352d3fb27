package store

import (
	"errors"
	"fmt"
	"log"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore is an embedded-KV artifact store backed by Badger. It trades
// the fs backend's one-file-per-slot layout for a single LSM-backed
// directory, which holds up better once years of slots accumulate.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database in dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Exists reports whether an artifact is stored under key. Engine failures
// are logged rather than conflated with an absent key, since resolver walks
// over a broken store should not look like empty slots silently.
func (s *BadgerStore) Exists(key string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, badger.ErrKeyNotFound):
		return false
	default:
		log.Printf("store: badger exists check for %s: %v", key, err)
		return false
	}
}

// Read returns the artifact bytes for key.
func (s *BadgerStore) Read(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write stores the artifact under key. The existence check and the set run
// in one update transaction, so the write-once guarantee holds under
// concurrent harvest chains.
func (s *BadgerStore) Write(key string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), data)
	})
}

// Close shuts down the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
