package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuman(t *testing.T) {
	assert.Equal(t, "512 B", Human(512))
	assert.Equal(t, "1.00 KB", Human(1024))
	assert.Equal(t, "1.50 MB", Human(1536*1024))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Solo Camp", SanitizeFilename("Solo Camp"))
	assert.Equal(t, "ab", SanitizeFilename(`a/\:*?"<>|b`))
}

func TestRemoveIfEmpty(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(empty, 0o755))
	RemoveIfEmpty(empty)
	_, err := os.Stat(empty)
	assert.True(t, os.IsNotExist(err))

	full := filepath.Join(dir, "full")
	require.NoError(t, os.Mkdir(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "Chapter_001.pdf"), []byte("x"), 0o644))
	RemoveIfEmpty(full)
	_, err = os.Stat(full)
	assert.NoError(t, err)
}

func TestCleanupUnfinishedImageFolders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Chapter_001"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Chapter_001", "001.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Chapter_001.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "_manifests"), 0o755))

	CleanupUnfinishedImageFolders(dir)

	_, err := os.Stat(filepath.Join(dir, "Chapter_001"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "Chapter_001.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "_manifests"))
	assert.NoError(t, err)
}
