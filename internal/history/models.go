package history

import "time"

// Status is a run's lifecycle state.
type Status string

// Run statuses.
const (
	StatusRunning       Status = "running"
	StatusRendered      Status = "rendered"
	StatusPublished     Status = "published"
	StatusPublishFailed Status = "publish_failed"
	StatusFailed        Status = "failed"
)

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusPublished, StatusPublishFailed, StatusFailed:
		return true
	default:
		return false
	}
}

// Run is one pipeline execution.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      *time.Time
	Day             int
	Template        string
	Status          Status
	Script          string
	AudioSeconds    float64
	WordCount       int
	CardCount       int
	Background      string
	OutputPath      string
	PublishResponse string
	ErrorMessage    string
}

// Elapsed returns the run duration, or zero while running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
