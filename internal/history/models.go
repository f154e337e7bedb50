package history

import "time"

// Status is the lifecycle position of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one row of the runs table.
type Run struct {
	ID           string
	ProjectTitle string
	ProjectPath  string
	Status       Status
	StartedAt    time.Time
	FinishedAt   time.Time
	Executed     int
	Skipped      int
	Failed       int
	ErrorMessage string
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Activity is one row of the activity_results table.
type Activity struct {
	RunID        string
	Pipeline     string
	Name         string
	Type         string
	Executed     int
	Skipped      int
	Failed       int
	Duration     time.Duration
	ErrorMessage string
	RecordedAt   time.Time
}
