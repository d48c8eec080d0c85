// Package downloader fetches chapter images over HTTP and normalizes them
// into JPEG files ready for assembly.
package downloader

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/mika534/mparkdl/internal/provider"
	"github.com/mika534/mparkdl/internal/ui"
	"github.com/mika534/mparkdl/internal/util"
)

const maxWorkers = 4

// Options tune how fetched images are post-processed.
type Options struct {
	Retries   int
	Quality   int // JPEG quality, 1-100
	MaxWidth  int // downscale wider images, 0 disables
	Grayscale bool
}

// Downloader retrieves the images of one chapter at a time.
type Downloader struct {
	client    *http.Client
	log       *ui.Logger
	retries   int
	quality   int
	maxWidth  int
	grayscale bool
}

// Asset is one downloaded, normalized chapter image on disk.
type Asset struct {
	SourceURL string
	Path      string
	Img       image.Image
	Width     int
	Height    int
	Bytes     int64
}

// Reporter receives progress while a chapter downloads.
type Reporter interface {
	Update(done, total int, bytes int64)
	ImageRetry(index int, err error)
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) Update(done, total int, bytes int64) {}
func (NopReporter) ImageRetry(index int, err error)     {}

func New(client *http.Client, opts Options, log *ui.Logger) *Downloader {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = 75
	}
	return &Downloader{
		client:    client,
		log:       log,
		retries:   opts.Retries,
		quality:   opts.Quality,
		maxWidth:  opts.MaxWidth,
		grayscale: opts.Grayscale,
	}
}

// DownloadChapter fetches every image of content into dir, pausing delay
// between fetches. Files are numbered by their position in the chapter so
// assembly order matches reading order regardless of worker interleaving.
// The first unrecoverable image error fails the whole chapter.
func (d *Downloader) DownloadChapter(ctx context.Context, content *provider.ChapterContent, chapterURL, dir string, delay time.Duration, workers int, rep Reporter) ([]Asset, error) {
	if rep == nil {
		rep = NopReporter{}
	}
	total := len(content.ImageURLs)
	if total == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chapter folder: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	assets := make([]Asset, total)
	var mu sync.Mutex
	var done int
	var bytes int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, imageURL := range content.ImageURLs {
		i, imageURL := i, imageURL
		g.Go(func() error {
			if err := util.Pause(gctx, delay); err != nil {
				return err
			}
			asset, n, err := d.downloadOne(gctx, imageURL, chapterURL, dir, i, rep)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return &AssetError{URL: imageURL, Index: i + 1, Attempts: n, Err: err}
			}
			assets[i] = asset
			mu.Lock()
			done++
			bytes += asset.Bytes
			rep.Update(done, total, bytes)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (d *Downloader) downloadOne(ctx context.Context, imageURL, referer, dir string, index int, rep Reporter) (Asset, int, error) {
	data, attempts, err := d.fetchImage(ctx, imageURL, referer)
	if err != nil {
		rep.ImageRetry(index+1, err)
		return Asset{}, attempts, err
	}

	img, err := decodeImage(data)
	if err != nil {
		// A body that fetched fine but will not decode never improves
		// on retry.
		return Asset{}, attempts, err
	}
	img = prepare(img, d.maxWidth, d.grayscale)

	path := filepath.Join(dir, fmt.Sprintf("%03d.jpg", index+1))
	if err := imaging.Save(img, path, imaging.JPEGQuality(d.quality)); err != nil {
		return Asset{}, attempts, fmt.Errorf("save %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Asset{}, attempts, err
	}
	b := img.Bounds()
	return Asset{
		SourceURL: imageURL,
		Path:      path,
		Img:       img,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Bytes:     info.Size(),
	}, attempts, nil
}
