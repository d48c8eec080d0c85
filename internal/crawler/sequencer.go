package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mika534/mparkdl/internal/downloader"
	"github.com/mika534/mparkdl/internal/pdf"
	"github.com/mika534/mparkdl/internal/provider"
	"github.com/mika534/mparkdl/internal/ui"
	"github.com/mika534/mparkdl/internal/util"
)

// Sequencer runs a crawl job: fetch a chapter, download its images,
// assemble the PDF, follow the next link. Chapters are processed one
// at a time in discovery order.
type Sequencer struct {
	Provider   provider.Provider
	Downloader *downloader.Downloader
	Assembler  *pdf.Assembler
	Log        *ui.Logger
	Sink       Sink
}

// Run executes the job until its mode says stop, the series ends, the
// context is cancelled, or too many chapters fail in a row. Cancellation
// is honored between chapters and aborts the chapter in flight without
// leaving partial output behind.
func (s *Sequencer) Run(ctx context.Context, job Job) (RunState, *Manifest, error) {
	sink := s.Sink
	if sink == nil {
		sink = NopSink{}
	}
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return RunState{}, nil, fmt.Errorf("create output folder: %w", err)
	}
	manifest, err := NewManifestWriter(job.OutputDir, job.StartURL, job.Title)
	if err != nil {
		return RunState{}, nil, err
	}

	var state RunState
	seen := make(map[string]bool)
	url := job.StartURL
	ordinal := 0
	attempted := 0
	consecutiveFailures := 0
	lastNumber := 0.0

	fail := func(ord int, chapterURL string, err error) bool {
		state.ChaptersFailed++
		consecutiveFailures++
		sink.ChapterFailed(ord, chapterURL, err)
		s.Log.Errorf("chapter %d failed: %v\n", ord, err)
		if job.MaxFailures > 0 && consecutiveFailures >= job.MaxFailures {
			state.Status = StatusFailed
			state.FailedOrdinal = ord
			state.Err = fmt.Errorf("%d consecutive chapter failures, last: %w", consecutiveFailures, err)
			return true
		}
		return false
	}

loop:
	for {
		if ctx.Err() != nil {
			state.Status = StatusCancelled
			break
		}
		if job.Mode == ModeManual && attempted >= job.Count {
			state.Status = StatusCompleted
			break
		}
		if job.Mode == ModeAutomatic && job.MaxChapters > 0 && attempted >= job.MaxChapters {
			s.Log.Warnf("reached the %d chapter safety cap, stopping\n", job.MaxChapters)
			state.Status = StatusCompleted
			break
		}
		if seen[url] {
			s.Log.Warnf("already visited %s, the next links form a cycle; stopping\n", url)
			state.Status = StatusCompleted
			break
		}
		seen[url] = true
		ordinal++
		attempted++

		content, err := s.Provider.FetchChapter(ctx, provider.ChapterRef{URL: url, Ordinal: ordinal})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				state.Status = StatusCancelled
				break
			}
			// Without the chapter page there is no next link to follow.
			state.ChaptersFailed++
			sink.ChapterFailed(ordinal, url, err)
			state.Status = StatusFailed
			state.FailedOrdinal = ordinal
			state.Err = err
			break
		}

		number, ok := pdf.ChapterNumber(url, content.Title)
		if !ok {
			number = lastNumber + 1
			s.Log.Debugf("no chapter number in %s, assuming %s\n", url, pdf.FormatChapter(number))
		}
		lastNumber = number

		sink.ChapterStarted(ordinal, url, content.Title, len(content.ImageURLs))

		if len(content.ImageURLs) == 0 {
			s.Log.Warnf("chapter %s has no images, skipping\n", pdf.FormatChapter(number))
			consecutiveFailures = 0
			_ = manifest.AppendChapter(newManifestChapter(ordinal, number, url, content, nil))
			sink.ChapterCompleted(ordinal, nil)
		} else {
			files, err := s.runChapter(ctx, job, number, url, content)
			switch {
			case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
				state.Status = StatusCancelled
				break loop
			case err != nil:
				if fail(ordinal, url, err) {
					break loop
				}
			default:
				state.ChaptersCompleted++
				consecutiveFailures = 0
				if err := manifest.AppendChapter(newManifestChapter(ordinal, number, url, content, files)); err != nil {
					s.Log.Warnf("manifest not updated: %v\n", err)
				}
				sink.ChapterCompleted(ordinal, files)
			}
		}

		if content.NextURL == "" {
			if job.Mode == ModeManual && attempted < job.Count {
				s.Log.Warnf("series ended after %d of %d requested chapter(s)\n", attempted, job.Count)
			}
			state.Status = StatusCompleted
			break
		}
		url = content.NextURL

		// the count checks at the loop top stop the run before another
		// fetch, so a run that is done does not sit out one more delay
		if job.Mode == ModeManual && attempted >= job.Count {
			continue
		}
		if job.Mode == ModeAutomatic && job.MaxChapters > 0 && attempted >= job.MaxChapters {
			continue
		}

		if err := util.Pause(ctx, job.Pacing.ChapterDelay); err != nil {
			state.Status = StatusCancelled
			break
		}
	}

	sink.RunFinished(state)
	return state, manifest.Manifest(), nil
}

// runChapter downloads and assembles one chapter. On any error the
// chapter's image folder is removed so a rerun starts clean.
func (s *Sequencer) runChapter(ctx context.Context, job Job, number float64, url string, content *provider.ChapterContent) ([]string, error) {
	imgDir := filepath.Join(job.OutputDir, "Chapter_"+pdf.FormatChapter(number))
	assets, err := s.Downloader.DownloadChapter(ctx, content, url, imgDir,
		job.Pacing.ImageDelay, job.Workers, sinkReporter{sink: s.sinkOrNop()})
	if err != nil {
		util.CleanupFolder(imgDir)
		return nil, err
	}

	outPath := filepath.Join(job.OutputDir, pdf.ChapterBaseName(number, job.Title)+".pdf")
	files, err := s.Assembler.Assemble(assets, outPath)
	if err != nil {
		return nil, err
	}
	if job.DeleteImages {
		if rmErr := os.RemoveAll(imgDir); rmErr != nil {
			s.Log.Warnf("could not remove %s: %v\n", imgDir, rmErr)
		}
	}
	return files, nil
}

func (s *Sequencer) sinkOrNop() Sink {
	if s.Sink != nil {
		return s.Sink
	}
	return NopSink{}
}

func newManifestChapter(ordinal int, number float64, url string, content *provider.ChapterContent, files []string) ManifestChapter {
	return ManifestChapter{
		Ordinal:    ordinal,
		Number:     number,
		URL:        url,
		Title:      content.Title,
		Images:     len(content.ImageURLs),
		Files:      files,
		FinishedAt: timeNow(),
	}
}
