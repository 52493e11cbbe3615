package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/footdata/standings-engine/internal/usecase"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

type Handler struct {
	standingsService   *usecase.StandingsService
	queueService       *usecase.QueueService
	snapshotService    *usecase.SnapshotService
	healthService      *usecase.HealthService
	matchResultService *usecase.MatchResultService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	standingsService *usecase.StandingsService,
	queueService *usecase.QueueService,
	snapshotService *usecase.SnapshotService,
	healthService *usecase.HealthService,
	matchResultService *usecase.MatchResultService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		standingsService:   standingsService,
		queueService:       queueService,
		snapshotService:    snapshotService,
		healthService:      healthService,
		matchResultService: matchResultService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReport serves the pipeline health grade. Unhealthy reports keep the
// regular payload but answer 503 so load balancer checks fail without parsing.
func (h *Handler) HealthReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.HealthReport")
	defer span.End()

	report := h.healthService.Report(ctx)

	status := http.StatusOK
	if report.Status == usecase.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	writeSuccess(ctx, w, status, healthReportToDTO(report))
}

func (h *Handler) decodeBody(r *http.Request, target any) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type healthMetricsDTO struct {
	PendingJobs    int `json:"pendingJobs"`
	ProcessingJobs int `json:"processingJobs"`
	CompletedJobs  int `json:"completedJobs"`
	FailedJobs     int `json:"failedJobs"`
}

type healthReportDTO struct {
	Status  string           `json:"status"`
	Metrics healthMetricsDTO `json:"metrics"`
}

func healthReportToDTO(report usecase.HealthReport) healthReportDTO {
	return healthReportDTO{
		Status: report.Status,
		Metrics: healthMetricsDTO{
			PendingJobs:    report.Metrics.PendingJobs,
			ProcessingJobs: report.Metrics.ProcessingJobs,
			CompletedJobs:  report.Metrics.CompletedJobs,
			FailedJobs:     report.Metrics.FailedJobs,
		},
	}
}
