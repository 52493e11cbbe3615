package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/usecase"
	jsoniter "github.com/json-iterator/go"
)

type enqueueRecalculationRequest struct {
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high"`
	Trigger  string `json:"trigger" validate:"omitempty,max=64"`
}

// EnqueueRecalculation queues a table recalculation for one league season. A
// request for a season with an active job merges into it, so the returned job
// ID is always the one that will actually run.
func (h *Handler) EnqueueRecalculation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EnqueueRecalculation")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	season := r.PathValue("season")

	req, err := decodeEnqueueRecalculationRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = calcjob.TriggerManual
	}

	job, merged, err := h.queueService.Enqueue(ctx, leagueID, season, req.Priority, trigger)
	if err != nil {
		h.logger.WarnContext(ctx, "enqueue recalculation failed", "league_id", leagueID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, enqueueRecalculationDTO{
		Success: true,
		JobID:   job.ID,
		Merged:  merged,
	})
}

func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.QueueStatus")
	defer span.End()

	status := h.queueService.Status(ctx)

	jobs := make([]jobDTO, 0, len(status.Jobs))
	for _, job := range status.Jobs {
		jobs = append(jobs, jobToDTO(job))
	}

	writeSuccess(ctx, w, http.StatusOK, queueStatusDTO{
		QueueLength:   status.QueueLength,
		ActiveJobs:    status.ActiveJobs,
		CompletedJobs: status.CompletedJobs,
		FailedJobs:    status.FailedJobs,
		IsPaused:      status.IsPaused,
		Jobs:          jobs,
	})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetJob")
	defer span.End()

	jobID := r.PathValue("jobID")
	job, err := h.queueService.Job(ctx, jobID)
	if err != nil {
		h.logger.WarnContext(ctx, "get job failed", "job_id", jobID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, jobToDTO(job))
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelJob")
	defer span.End()

	jobID := r.PathValue("jobID")
	job, err := h.queueService.Cancel(ctx, jobID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel job failed", "job_id", jobID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"jobId":   job.ID,
	})
}

func (h *Handler) PauseQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseQueue")
	defer span.End()

	paused := h.queueService.Pause(ctx)

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"success":  true,
		"isPaused": paused,
	})
}

func (h *Handler) ResumeQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeQueue")
	defer span.End()

	paused := h.queueService.Resume(ctx)

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"success":  true,
		"isPaused": paused,
	})
}

// decodeEnqueueRecalculationRequest tolerates an empty body; POSTing without
// a payload enqueues at normal priority.
func decodeEnqueueRecalculationRequest(r *http.Request) (enqueueRecalculationRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req enqueueRecalculationRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return enqueueRecalculationRequest{}, nil
		}
		return enqueueRecalculationRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

type enqueueRecalculationDTO struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
	Merged  bool   `json:"merged"`
}

type queueStatusDTO struct {
	QueueLength   int      `json:"queueLength"`
	ActiveJobs    int      `json:"activeJobs"`
	CompletedJobs int      `json:"completedJobs"`
	FailedJobs    int      `json:"failedJobs"`
	IsPaused      bool     `json:"isPaused"`
	Jobs          []jobDTO `json:"jobs"`
}

type jobDTO struct {
	ID          string `json:"id"`
	LeagueID    string `json:"leagueId"`
	Season      string `json:"season"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Trigger     string `json:"trigger"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"maxAttempts"`
	EnqueuedAt  string `json:"enqueuedAt"`
	NotBefore   string `json:"notBefore,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
	FinishedAt  string `json:"finishedAt,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	NeedsRerun  bool   `json:"needsRerun"`
}

func jobToDTO(job calcjob.Job) jobDTO {
	dto := jobDTO{
		ID:          job.ID,
		LeagueID:    job.LeagueID,
		Season:      job.Season,
		Priority:    string(job.Priority),
		Status:      string(job.Status),
		Trigger:     job.Trigger,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		EnqueuedAt:  job.EnqueuedAt.UTC().Format(time.RFC3339),
		LastError:   job.LastError,
		NeedsRerun:  job.NeedsRerun,
	}
	if !job.NotBefore.IsZero() {
		dto.NotBefore = job.NotBefore.UTC().Format(time.RFC3339)
	}
	if job.StartedAt != nil {
		dto.StartedAt = job.StartedAt.UTC().Format(time.RFC3339)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = job.FinishedAt.UTC().Format(time.RFC3339)
	}

	return dto
}
