package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"

	"github.com/mika534/mparkdl/internal/downloader"
	"github.com/mika534/mparkdl/internal/ui"
)

// AssemblyError reports a chapter whose PDF could not be written. Any
// partially written output has been removed by the time it is returned.
type AssemblyError struct {
	Path string
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble %s: %v", e.Path, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Assembler packs chapter images into PDF pages. Images are stacked
// top to bottom until a page would exceed PageHeightLimit; an image
// taller than the limit on its own is sliced into full-width bands.
type Assembler struct {
	PageHeightLimit int
	MaxPagesPerFile int
	Quality         int
	Log             *ui.Logger
}

// pagePart references a rectangular band of one source image.
type pagePart struct {
	asset int
	crop  image.Rectangle
}

type pageLayout struct {
	parts  []pagePart
	width  int
	height int
}

// planPages computes the page layout from image dimensions alone. The
// layout is a pure function of the input order and sizes, so identical
// inputs always produce identical documents.
func planPages(dims []image.Point, heightLimit int) []pageLayout {
	var pages []pageLayout
	var cur pageLayout

	flush := func() {
		if len(cur.parts) > 0 {
			pages = append(pages, cur)
			cur = pageLayout{}
		}
	}

	for i, d := range dims {
		if d.X <= 0 || d.Y <= 0 {
			continue
		}
		if d.Y > heightLimit {
			flush()
			for y := 0; y < d.Y; y += heightLimit {
				band := heightLimit
				if y+band > d.Y {
					band = d.Y - y
				}
				pages = append(pages, pageLayout{
					parts:  []pagePart{{asset: i, crop: image.Rect(0, y, d.X, y+band)}},
					width:  d.X,
					height: band,
				})
			}
			continue
		}
		if cur.height+d.Y > heightLimit {
			flush()
		}
		cur.parts = append(cur.parts, pagePart{asset: i, crop: image.Rect(0, 0, d.X, d.Y)})
		cur.height += d.Y
		if d.X > cur.width {
			cur.width = d.X
		}
	}
	flush()
	return pages
}

// Assemble writes the chapter's images to outPath. When the page count
// exceeds MaxPagesPerFile the document is split into continuation files
// named "... (2).pdf", "... (3).pdf" and so on. The written file paths
// are returned in order.
func (a *Assembler) Assemble(assets []downloader.Asset, outPath string) ([]string, error) {
	if len(assets) == 0 {
		return nil, nil
	}
	dims := make([]image.Point, len(assets))
	for i, asset := range assets {
		dims[i] = image.Pt(asset.Width, asset.Height)
	}
	limit := a.PageHeightLimit
	if limit <= 0 {
		limit = 20000
	}
	pages := planPages(dims, limit)

	perFile := a.MaxPagesPerFile
	if perFile <= 0 {
		perFile = len(pages)
	}

	var written []string
	cleanup := func() {
		for _, p := range written {
			os.Remove(p)
		}
	}

	for part := 0; part*perFile < len(pages); part++ {
		chunk := pages[part*perFile:]
		if len(chunk) > perFile {
			chunk = chunk[:perFile]
		}
		path := continuationPath(outPath, part+1)
		if err := a.writeFile(assets, chunk, path); err != nil {
			cleanup()
			return nil, &AssemblyError{Path: path, Err: err}
		}
		written = append(written, path)
	}
	if a.Log != nil {
		a.Log.Debugf("assembled %d page(s) across %d file(s) from %d image(s)\n", len(pages), len(written), len(assets))
	}
	return written, nil
}

func continuationPath(outPath string, part int) string {
	if part <= 1 {
		return outPath
	}
	ext := ".pdf"
	stem := strings.TrimSuffix(outPath, ext)
	return fmt.Sprintf("%s (%d)%s", stem, part, ext)
}

func (a *Assembler) writeFile(assets []downloader.Asset, pages []pageLayout, path string) error {
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	quality := a.Quality
	if quality < 1 || quality > 100 {
		quality = 75
	}

	for i, p := range pages {
		canvas := imaging.New(p.width, p.height, image.White)
		y := 0
		for _, part := range p.parts {
			band := imaging.Crop(assets[part.asset].Img, part.crop)
			x := (p.width - band.Bounds().Dx()) / 2
			canvas = imaging.Paste(canvas, band, image.Pt(x, y))
			y += band.Bounds().Dy()
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}

		w, h := float64(p.width), float64(p.height)
		doc.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: "JPG"}
		doc.RegisterImageOptionsReader(name, opts, &buf)
		doc.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
		if doc.Err() {
			return fmt.Errorf("place page %d: %v", i+1, doc.Error())
		}
	}

	if err := doc.OutputFileAndClose(path); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
