package postgres

import "time"

type dispatchEventInsertModel struct {
	DispatchID       string     `db:"dispatch_id"`
	JobID            string     `db:"job_id"`
	LeagueID         string     `db:"league_public_id"`
	Season           string     `db:"season"`
	Trigger          string     `db:"trigger"`
	Priority         string     `db:"priority"`
	Status           string     `db:"status"`
	Attempts         int        `db:"attempts"`
	Payload          string     `db:"payload"`
	LastError        *string    `db:"last_error"`
	EnqueuedAt       *time.Time `db:"enqueued_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	EnqueuedTraceID  *string    `db:"enqueued_trace_id"`
	EnqueuedSpanID   *string    `db:"enqueued_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
}
