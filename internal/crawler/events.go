package crawler

// Sink receives progress events from a run. Implementations must be safe
// for concurrent calls to ImageProgress and ImageRetry.
type Sink interface {
	ChapterStarted(ordinal int, url, title string, images int)
	ImageProgress(done, total int, bytes int64)
	ImageRetry(index int, err error)
	ChapterCompleted(ordinal int, files []string)
	ChapterFailed(ordinal int, url string, err error)
	RunFinished(state RunState)
}

// NopSink ignores every event.
type NopSink struct{}

func (NopSink) ChapterStarted(ordinal int, url, title string, images int) {}
func (NopSink) ImageProgress(done, total int, bytes int64)                {}
func (NopSink) ImageRetry(index int, err error)                           {}
func (NopSink) ChapterCompleted(ordinal int, files []string)              {}
func (NopSink) ChapterFailed(ordinal int, url string, err error)          {}
func (NopSink) RunFinished(state RunState)                                {}

// sinkReporter adapts a Sink to the downloader's progress interface.
type sinkReporter struct{ sink Sink }

func (r sinkReporter) Update(done, total int, bytes int64) { r.sink.ImageProgress(done, total, bytes) }
func (r sinkReporter) ImageRetry(index int, err error)     { r.sink.ImageRetry(index, err) }
