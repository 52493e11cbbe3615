package calcjob

import "time"

type DispatchStatus string

const (
	DispatchEnqueued  DispatchStatus = "enqueued"
	DispatchCompleted DispatchStatus = "completed"
	DispatchFailed    DispatchStatus = "failed"
)

// DispatchEvent is one audit record of a job moving through the queue.
type DispatchEvent struct {
	DispatchID   string
	JobID        string
	LeagueID     string
	Season       string
	Trigger      string
	Priority     Priority
	Status       DispatchStatus
	Attempts     int
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
