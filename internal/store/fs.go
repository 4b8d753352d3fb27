package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// FSStore persists one artifact file per slot key under a data directory,
// mirroring the json-data layout the query layer has always served from.
// Write-once is enforced with O_EXCL, so two harvest chains racing on the
// same slot produce exactly one file.
type FSStore struct {
	dir string
}

// NewFSStore creates the data directory if needed and returns a store over it.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Exists reports whether an artifact file is present for key.
func (s *FSStore) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Read returns the artifact bytes for key.
func (s *FSStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write creates the artifact file for key. An existing file is never
// overwritten; the O_EXCL open reports ErrAlreadyExists instead.
func (s *FSStore) Write(key string, data []byte) error {
	f, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyExists
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(s.path(key))
		return err
	}
	return f.Close()
}

// Close is a no-op: files are closed per write.
func (s *FSStore) Close() error {
	return nil
}
