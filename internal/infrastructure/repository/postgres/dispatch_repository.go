package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	qb "github.com/footdata/standings-engine/internal/platform/querybuilder"
)

type DispatchRepository struct {
	db *sqlx.DB
}

func NewDispatchRepository(db *sqlx.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

func (r *DispatchRepository) UpsertEvent(ctx context.Context, event calcjob.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobID := strings.TrimSpace(event.JobID)
	if jobID == "" {
		jobID = "unknown"
	}
	leagueID := strings.TrimSpace(event.LeagueID)
	if leagueID == "" {
		leagueID = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalDispatchPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal dispatch event payload: %w", err)
	}

	model := dispatchEventInsertModel{
		DispatchID: dispatchID,
		JobID:      jobID,
		LeagueID:   leagueID,
		Season:     event.Season,
		Trigger:    event.Trigger,
		Priority:   string(event.Priority),
		Status:     string(event.Status),
		Attempts:   event.Attempts,
		Payload:    payloadJSON,
		LastError:  optionalString(event.ErrorMessage),
	}

	switch event.Status {
	case calcjob.DispatchEnqueued:
		model.EnqueuedAt = &occurredAt
		model.EnqueuedTraceID = optionalString(event.TraceID)
		model.EnqueuedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case calcjob.DispatchCompleted:
		model.CompletedAt = &occurredAt
		model.CompletedTraceID = optionalString(event.TraceID)
		model.CompletedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case calcjob.DispatchFailed:
		model.FailedAt = &occurredAt
		model.FailedTraceID = optionalString(event.TraceID)
		model.FailedSpanID = optionalString(event.SpanID)
	}

	query, args, err := qb.InsertModel("job_dispatch_events", model, `ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL
DO UPDATE SET
    job_id = EXCLUDED.job_id,
    league_public_id = EXCLUDED.league_public_id,
    season = EXCLUDED.season,
    trigger = EXCLUDED.trigger,
    priority = EXCLUDED.priority,
    status = EXCLUDED.status,
    attempts = EXCLUDED.attempts,
    payload = EXCLUDED.payload,
    enqueued_at = CASE
        WHEN EXCLUDED.status = 'enqueued' THEN EXCLUDED.enqueued_at
        ELSE COALESCE(job_dispatch_events.enqueued_at, EXCLUDED.enqueued_at)
    END,
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE job_dispatch_events.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE job_dispatch_events.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    enqueued_trace_id = CASE
        WHEN EXCLUDED.status = 'enqueued' THEN EXCLUDED.enqueued_trace_id
        ELSE job_dispatch_events.enqueued_trace_id
    END,
    enqueued_span_id = CASE
        WHEN EXCLUDED.status = 'enqueued' THEN EXCLUDED.enqueued_span_id
        ELSE job_dispatch_events.enqueued_span_id
    END,
    completed_trace_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_trace_id
        ELSE job_dispatch_events.completed_trace_id
    END,
    completed_span_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_span_id
        ELSE job_dispatch_events.completed_span_id
    END,
    failed_trace_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_trace_id
        ELSE job_dispatch_events.failed_trace_id
    END,
    failed_span_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_span_id
        ELSE job_dispatch_events.failed_span_id
    END,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert dispatch event query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert dispatch event dispatch_id=%s status=%s: %w", dispatchID, event.Status, err)
	}

	return nil
}

func marshalDispatchPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
