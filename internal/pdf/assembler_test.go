package pdf

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mika534/mparkdl/internal/downloader"
)

func TestPlanPagesPacksUpToLimit(t *testing.T) {
	dims := []image.Point{
		{X: 800, Y: 4000},
		{X: 800, Y: 4000},
		{X: 800, Y: 4000},
	}
	pages := planPages(dims, 10000)

	require.Len(t, pages, 2)
	assert.Len(t, pages[0].parts, 2)
	assert.Equal(t, 8000, pages[0].height)
	assert.Len(t, pages[1].parts, 1)
}

func TestPlanPagesSlicesTallImage(t *testing.T) {
	dims := []image.Point{
		{X: 800, Y: 1000},
		{X: 900, Y: 25000},
		{X: 800, Y: 1000},
	}
	pages := planPages(dims, 10000)

	// 1 page before, ceil(25000/10000)=3 band pages, 1 page after
	require.Len(t, pages, 5)

	total := 0
	for _, p := range pages[1:4] {
		require.Len(t, p.parts, 1)
		assert.Equal(t, 1, p.parts[0].asset)
		assert.LessOrEqual(t, p.height, 10000)
		total += p.parts[0].crop.Dy()
	}
	assert.Equal(t, 25000, total)
}

func TestPlanPagesNeverExceedsLimit(t *testing.T) {
	dims := []image.Point{
		{X: 700, Y: 9999}, {X: 700, Y: 1}, {X: 700, Y: 1},
		{X: 700, Y: 5000}, {X: 700, Y: 5000}, {X: 700, Y: 5000},
	}
	for _, p := range planPages(dims, 10000) {
		assert.LessOrEqual(t, p.height, 10000)
		assert.Greater(t, p.height, 0)
	}
}

func TestPlanPagesSkipsEmptyDims(t *testing.T) {
	pages := planPages([]image.Point{{X: 0, Y: 0}}, 10000)
	assert.Empty(t, pages)
}

func TestPlanPagesIsDeterministic(t *testing.T) {
	dims := []image.Point{{X: 800, Y: 3000}, {X: 600, Y: 12000}, {X: 800, Y: 3000}}
	assert.Equal(t, planPages(dims, 10000), planPages(dims, 10000))
}

func testAssets(sizes ...image.Point) []downloader.Asset {
	assets := make([]downloader.Asset, len(sizes))
	for i, s := range sizes {
		assets[i] = downloader.Asset{
			Img:    imaging.New(s.X, s.Y, image.White),
			Width:  s.X,
			Height: s.Y,
		}
	}
	return assets
}

func TestAssembleWritesPDF(t *testing.T) {
	dir := t.TempDir()
	a := &Assembler{PageHeightLimit: 1000, MaxPagesPerFile: 300, Quality: 75}

	out := filepath.Join(dir, "Chapter_001.pdf")
	files, err := a.Assemble(testAssets(image.Pt(400, 600), image.Pt(400, 600)), out)
	require.NoError(t, err)
	require.Equal(t, []string{out}, files)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestAssembleSplitsIntoContinuationFiles(t *testing.T) {
	dir := t.TempDir()
	a := &Assembler{PageHeightLimit: 500, MaxPagesPerFile: 2, Quality: 75}

	// 4 images, one per page, 2 pages per file
	out := filepath.Join(dir, "Chapter_002.pdf")
	files, err := a.Assemble(testAssets(
		image.Pt(300, 400), image.Pt(300, 400), image.Pt(300, 400), image.Pt(300, 400),
	), out)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, out, files[0])
	assert.Equal(t, filepath.Join(dir, "Chapter_002 (2).pdf"), files[1])

	for _, f := range files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}

func TestAssembleNoAssets(t *testing.T) {
	as := &Assembler{}
	files, err := as.Assemble(nil, "unused.pdf")
	assert.NoError(t, err)
	assert.Empty(t, files)
}
