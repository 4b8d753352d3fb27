package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Exists("2024011000"))
	_, err = s.Read("2024011000")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write("2024011000", []byte(`{"u":[1]}`)))
	assert.True(t, s.Exists("2024011000"))

	data, err := s.Read("2024011000")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"u":[1]}`), data)
}

func TestFSStoreWriteOnce(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write("2024011006", []byte("first")))
	err = s.Write("2024011006", []byte("second"))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// The original artifact is untouched.
	data, err := s.Read("2024011006")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestFSStoreCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "json-data")
	_, err := NewFSStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
