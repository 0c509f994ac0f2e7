package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.db")
	n, err := SnapshotBytes(path)
	require.NoError(t, err)
	assert.Zero(t, n, "missing snapshot")

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.SaveSpace(context.Background(), testSpace(), "src"))

	n, err = SnapshotBytes(path)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestSnapshotBytesCountsSidecars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.db")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))
	require.NoError(t, os.WriteFile(path+"-wal", []byte("abc"), 0644))

	n, err := SnapshotBytes(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
}

func TestSnapshotBytesRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := SnapshotBytes(dir)
	assert.Error(t, err)
}
