// Package crawler walks a publication chapter by chapter, driving the
// download and assembly of each one in strict reading order.
package crawler

import "time"

// Mode selects how a run decides when to stop.
type Mode int

const (
	// ModeManual fetches a fixed number of chapters.
	ModeManual Mode = iota
	// ModeAutomatic follows next links until the series runs out.
	ModeAutomatic
)

func (m Mode) String() string {
	if m == ModeAutomatic {
		return "automatic"
	}
	return "manual"
}

// Pacing holds the delays a run inserts to stay polite.
type Pacing struct {
	ImageDelay   time.Duration
	ChapterDelay time.Duration
}

// Job describes one crawl run.
type Job struct {
	StartURL     string
	Mode         Mode
	Count        int // chapters to fetch in manual mode
	OutputDir    string
	Title        string // appended to output filenames
	Pacing       Pacing
	Workers      int
	DeleteImages bool // remove image folders once the chapter PDF exists
	MaxChapters  int  // safety cap for automatic runs
	MaxFailures  int  // consecutive chapter failures before giving up
}

// Status is the terminal condition of a run.
type Status int

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "running"
	}
}

// RunState summarizes a finished run.
type RunState struct {
	Status            Status
	ChaptersCompleted int
	ChaptersFailed    int
	FailedOrdinal     int // ordinal of the chapter that ended a failed run
	Err               error
}
