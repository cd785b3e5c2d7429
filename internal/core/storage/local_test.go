package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalCreatesLayout(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(l.Root(), "jobs"))
	assert.DirExists(t, filepath.Join(l.Root(), "archives"))

	assert.Equal(t, filepath.Join(l.Root(), "jobs", "j1"), l.JobDir("j1"))
	assert.Equal(t, filepath.Join(l.Root(), "jobs", "j1", "work"), l.WorkDir("j1"))
	assert.Equal(t, filepath.Join(l.Root(), "jobs", "j1", "status.json"), l.StatusPath("j1"))
	assert.Equal(t, filepath.Join(l.Root(), "archives", "j1.zip"), l.ArchivePath("j1"))
}

func TestOpen(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(l.JobDir("j1"), 0o755))
	path := l.StatusPath("j1")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))

	f, meta, err := l.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, int64(7), meta.Size)
	assert.Equal(t, "application/json", meta.ContentType)
	assert.False(t, meta.ModTime.IsZero())

	_, _, err = l.Open(l.ArchivePath("missing"))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	path := l.ArchivePath("j1")
	assert.False(t, l.Exists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, l.Exists(path))
}

func TestCleanStaleWorkDirs(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	// j1: interrupted mid-run, work dir plus status mirror on disk.
	require.NoError(t, os.MkdirAll(l.WorkDir("j1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(l.WorkDir("j1"), "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(l.StatusPath("j1"), []byte("{}"), 0o644))

	// j2: completed in an earlier run, no work dir left.
	require.NoError(t, os.MkdirAll(l.JobDir("j2"), 0o755))
	require.NoError(t, os.WriteFile(l.StatusPath("j2"), []byte("{}"), 0o644))

	removed := l.CleanStaleWorkDirs()
	assert.Equal(t, 1, removed)

	assert.NoDirExists(t, l.WorkDir("j1"))
	assert.FileExists(t, l.StatusPath("j1"), "status mirrors survive cleanup")
	assert.FileExists(t, l.StatusPath("j2"))
}
