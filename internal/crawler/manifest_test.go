package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewManifestWriter(dir, "https://site.test/c/1", "Solo Camp")
	require.NoError(t, err)

	require.NoError(t, w.AppendChapter(ManifestChapter{
		Ordinal: 1,
		Number:  1,
		URL:     "https://site.test/c/1",
		Images:  12,
		Files:   []string{filepath.Join(dir, "Chapter_001 - Solo Camp.pdf")},
	}))
	require.NoError(t, w.AppendChapter(ManifestChapter{
		Ordinal: 2,
		Number:  2,
		URL:     "https://site.test/c/2",
		Images:  9,
		Files:   []string{filepath.Join(dir, "Chapter_002 - Solo Camp.pdf")},
	}))

	m, err := LoadLatestManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/c/1", m.StartURL)
	assert.Equal(t, "Solo Camp", m.Title)
	require.Len(t, m.Chapters, 2)
	assert.Equal(t, []string{
		"Chapter_001 - Solo Camp.pdf",
		"Chapter_002 - Solo Camp.pdf",
	}, m.PDFNames())
}

func TestLoadLatestManifestPicksNewestRun(t *testing.T) {
	dir := t.TempDir()

	w1, err := NewManifestWriter(dir, "https://site.test/c/1", "")
	require.NoError(t, err)
	require.NoError(t, w1.AppendChapter(ManifestChapter{Ordinal: 1, Number: 1}))

	// pointer always names the most recent writer
	w2, err := NewManifestWriter(dir, "https://site.test/c/5", "")
	require.NoError(t, err)
	require.NoError(t, w2.AppendChapter(ManifestChapter{Ordinal: 1, Number: 5}))

	m, err := LoadLatestManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/c/5", m.StartURL)
}

func TestManifestNotWrittenBeforeFirstChapter(t *testing.T) {
	dir := t.TempDir()
	_, err := NewManifestWriter(dir, "https://site.test/c/1", "")
	require.NoError(t, err)

	// a run that appends nothing must leave the output folder untouched
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadLatestManifestMissing(t *testing.T) {
	_, err := LoadLatestManifest(t.TempDir())
	assert.Error(t, err)
}

func TestManifestSurvivesPartialRun(t *testing.T) {
	dir := t.TempDir()

	w, err := NewManifestWriter(dir, "https://site.test/c/1", "")
	require.NoError(t, err)
	require.NoError(t, w.AppendChapter(ManifestChapter{Ordinal: 1, Number: 1}))

	// every append rewrites the file, so a crash after chapter 1 still
	// leaves a readable manifest
	data, err := os.ReadFile(w.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"start_url"`)

	m, err := LoadLatestManifest(dir)
	require.NoError(t, err)
	assert.Len(t, m.Chapters, 1)
}
