package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string, version int) *SQLite {
	t.Helper()

	s, err := OpenSQLite(path, version)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s Store) map[string]string {
	t.Helper()

	got := make(map[string]string)
	err := s.Load(func(key string, data []byte) error {
		got[key] = string(data)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestSQLite_StoreAndLoad(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "songs.db"), 7)
	defer s.Close()

	require.NoError(t, s.Store("/music/a.mp3", []byte("a"), true))
	require.NoError(t, s.Store("/music/b.mp3", []byte("b"), true))

	assert.Equal(t, map[string]string{
		"/music/a.mp3": "a",
		"/music/b.mp3": "b",
	}, collect(t, s))
}

func TestSQLite_Overwrite(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "songs.db"), 7)
	defer s.Close()

	require.NoError(t, s.Store("k", []byte("first"), true))
	require.NoError(t, s.Store("k", []byte("second"), false))
	assert.Equal(t, "first", collect(t, s)["k"])

	require.NoError(t, s.Store("k", []byte("third"), true))
	assert.Equal(t, "third", collect(t, s)["k"])
}

func TestSQLite_Delete(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "songs.db"), 7)
	defer s.Close()

	require.NoError(t, s.Store("k", []byte("v"), true))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("missing"))
	assert.Empty(t, collect(t, s))
}

func TestSQLite_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.db")

	s := openTestStore(t, path, 7)
	require.NoError(t, s.Store("k", []byte("v"), true))
	require.NoError(t, s.Close())

	s = openTestStore(t, path, 7)
	defer s.Close()
	assert.Equal(t, map[string]string{"k": "v"}, collect(t, s))
}

func TestSQLite_VersionMismatchRebuilds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.db")

	s := openTestStore(t, path, 6)
	require.NoError(t, s.Store("k", []byte("old layout"), true))
	require.NoError(t, s.Close())

	s = openTestStore(t, path, 7)
	defer s.Close()

	assert.Empty(t, collect(t, s))
	v, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSQLite_DecodeErrorStopsLoad(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "songs.db"), 1)
	defer s.Close()

	require.NoError(t, s.Store("a", []byte("1"), true))
	require.NoError(t, s.Store("b", []byte("2"), true))

	boom := errors.New("boom")
	calls := 0
	err := s.Load(func(string, []byte) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestSQLite_SecondOpenIsLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.db")

	s := openTestStore(t, path, 1)
	defer s.Close()

	_, err := OpenSQLite(path, 1)
	assert.ErrorIs(t, err, ErrLocked)
}
