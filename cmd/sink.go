package cmd

import (
	"fmt"
	"sync/atomic"

	"github.com/mika534/mparkdl/internal/crawler"
	"github.com/mika534/mparkdl/internal/ui"
)

// runSink feeds crawl events into the progress bars and run statistics.
// One chapter is active at a time, so only the image-level callbacks
// need to be concurrency safe.
type runSink struct {
	pm    *ui.MPBProgressManager
	stats *ui.Stats
	log   *ui.Logger

	current    *ui.ProgressHandle
	lastDone   atomic.Int64
	lastBytes  atomic.Int64
	lastImages int
}

func newRunSink(pm *ui.MPBProgressManager, stats *ui.Stats, log *ui.Logger) *runSink {
	return &runSink{pm: pm, stats: stats, log: log}
}

func (s *runSink) ChapterStarted(ordinal int, url, title string, images int) {
	prefix := fmt.Sprintf("Ch.%d", ordinal)
	if title != "" {
		prefix = truncate(title, 24)
	}
	s.lastDone.Store(0)
	s.lastBytes.Store(0)
	s.lastImages = images
	if images == 0 {
		s.current = nil
		return
	}
	h := s.pm.Register(prefix)
	h.SetTotal(images)
	s.current = h
}

func (s *runSink) ImageProgress(done, total int, bytes int64) {
	s.lastDone.Store(int64(done))
	s.lastBytes.Store(bytes)
	if s.current != nil {
		s.current.Update(done, total, bytes)
	}
}

func (s *runSink) ImageRetry(index int, err error) {
	s.stats.FailedImages.Add(1)
	s.log.Debugf("image %d: %v\n", index, err)
}

func (s *runSink) ChapterCompleted(ordinal int, files []string) {
	if s.current != nil {
		s.current.MarkDone()
		s.current = nil
	}
	if s.lastImages > 0 {
		s.stats.TotalChapters.Add(1)
		s.stats.TotalImages.Add(s.lastDone.Load())
		s.stats.TotalBytes.Add(s.lastBytes.Load())
	}
}

func (s *runSink) ChapterFailed(ordinal int, url string, err error) {
	if s.current != nil {
		s.current.Abandon()
		s.current = nil
	}
}

func (s *runSink) RunFinished(state crawler.RunState) {}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
