package pdf

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanMergeOrdersByChapterNumber(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 3}
	plan := m.PlanMerge([]string{
		"Chapter_003 - Solo Camp.pdf",
		"Chapter_001 - Solo Camp.pdf",
		"Chapter_002 - Solo Camp.pdf",
	}, "Solo Camp")

	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, "Chapter_001-003 - Solo Camp.pdf", plan.Bundles[0].Name)
	assert.Equal(t, []string{
		"Chapter_001 - Solo Camp.pdf",
		"Chapter_002 - Solo Camp.pdf",
		"Chapter_003 - Solo Camp.pdf",
	}, plan.Bundles[0].Members)
	assert.Empty(t, plan.Skipped)
	assert.Empty(t, plan.Warnings)
}

func TestPlanMergeSkipsUnparseableNames(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 2}
	plan := m.PlanMerge([]string{
		"Chapter_001.pdf",
		"cover.pdf",
		"Chapter_002.pdf",
	}, "")

	assert.Equal(t, []string{"cover.pdf"}, plan.Skipped)
	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, "Chapter_001-002.pdf", plan.Bundles[0].Name)
}

func TestPlanMergeIgnoresAlreadyMerged(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 2}
	plan := m.PlanMerge([]string{
		"Chapter_001-002 - Solo Camp.pdf",
		"Chapter_003 - Solo Camp.pdf",
		"Chapter_004 - Solo Camp.pdf",
	}, "Solo Camp")

	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, "Chapter_003-004 - Solo Camp.pdf", plan.Bundles[0].Name)
	assert.Empty(t, plan.Skipped)
}

func TestPlanMergeDuplicateNumbersWarnAndOrderByName(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 3}
	plan := m.PlanMerge([]string{
		"Chapter_005 - b.pdf",
		"Chapter_005 - a.pdf",
		"Chapter_006 - a.pdf",
	}, "a")

	require.Len(t, plan.Warnings, 1)
	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, []string{
		"Chapter_005 - a.pdf",
		"Chapter_005 - b.pdf",
		"Chapter_006 - a.pdf",
	}, plan.Bundles[0].Members)
}

func TestPlanMergeSingleLeftoverIsNotBundled(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 2}
	plan := m.PlanMerge([]string{
		"Chapter_001.pdf",
		"Chapter_002.pdf",
		"Chapter_003.pdf",
	}, "")

	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, []string{"Chapter_001.pdf", "Chapter_002.pdf"}, plan.Bundles[0].Members)
}

func TestPlanMergeFractionalChapters(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 2}
	plan := m.PlanMerge([]string{
		"Chapter_012_5 - Solo Camp.pdf",
		"Chapter_012 - Solo Camp.pdf",
	}, "Solo Camp")

	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, "Chapter_012-012_5 - Solo Camp.pdf", plan.Bundles[0].Name)
	assert.Equal(t, []string{
		"Chapter_012 - Solo Camp.pdf",
		"Chapter_012_5 - Solo Camp.pdf",
	}, plan.Bundles[0].Members)
}

func TestMergeDirBundlesAndStashesOriginals(t *testing.T) {
	dir := t.TempDir()
	as := &Assembler{PageHeightLimit: 1000, Quality: 75}
	for _, ch := range []float64{1, 2} {
		out := filepath.Join(dir, ChapterBaseName(ch, "Solo Camp")+".pdf")
		_, err := as.Assemble(testAssets(image.Pt(300, 400)), out)
		require.NoError(t, err)
	}

	m := &Merger{ChaptersPerBundle: 2, KeepOriginals: true}
	res, err := m.MergeDir(dir, nil, "Solo Camp")
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Equal(t, []string{"Chapter_001-002 - Solo Camp.pdf"}, res.Merged)

	_, err = os.Stat(filepath.Join(dir, "Chapter_001-002 - Solo Camp.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, OriginalsDir, "Chapter_001 - Solo Camp.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "Chapter_001 - Solo Camp.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestMergeDirRestrictedToSession(t *testing.T) {
	dir := t.TempDir()
	as := &Assembler{PageHeightLimit: 1000, Quality: 75}
	for _, ch := range []float64{1, 2, 3} {
		out := filepath.Join(dir, ChapterBaseName(ch, "")+".pdf")
		_, err := as.Assemble(testAssets(image.Pt(300, 400)), out)
		require.NoError(t, err)
	}

	m := &Merger{ChaptersPerBundle: 2, KeepOriginals: true}
	res, err := m.MergeDir(dir, []string{"Chapter_002.pdf", "Chapter_003.pdf"}, "")
	require.NoError(t, err)
	require.Equal(t, []string{"Chapter_002-003.pdf"}, res.Merged)

	// chapter from an earlier run is untouched
	_, err = os.Stat(filepath.Join(dir, "Chapter_001.pdf"))
	assert.NoError(t, err)
}

func TestPlanMergeTitleFromMembers(t *testing.T) {
	m := &Merger{ChaptersPerBundle: 2}
	plan := m.PlanMerge([]string{
		"Chapter_001 - Solo Camp.pdf",
		"Chapter_002 - Solo Camp.pdf",
	}, "")

	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, "Chapter_001-002 - Solo Camp.pdf", plan.Bundles[0].Name)
}
