package usecase

import "context"

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

const (
	defaultHealthPendingDegraded      = 10
	defaultHealthPendingUnhealthy     = 50
	defaultHealthFailureRateDegraded  = 0.1
	defaultHealthFailureRateUnhealthy = 0.5
)

type HealthServiceConfig struct {
	PendingDegraded      int
	PendingUnhealthy     int
	FailureRateDegraded  float64
	FailureRateUnhealthy float64
}

func (c HealthServiceConfig) normalize() HealthServiceConfig {
	if c.PendingDegraded <= 0 {
		c.PendingDegraded = defaultHealthPendingDegraded
	}
	if c.PendingUnhealthy <= 0 {
		c.PendingUnhealthy = defaultHealthPendingUnhealthy
	}
	if c.FailureRateDegraded <= 0 {
		c.FailureRateDegraded = defaultHealthFailureRateDegraded
	}
	if c.FailureRateUnhealthy <= 0 {
		c.FailureRateUnhealthy = defaultHealthFailureRateUnhealthy
	}

	return c
}

type HealthMetrics struct {
	PendingJobs    int
	ProcessingJobs int
	CompletedJobs  int
	FailedJobs     int
}

type HealthReport struct {
	Status  string
	Metrics HealthMetrics
}

// HealthService grades the calculation pipeline from queue depth and the
// recent failure rate.
type HealthService struct {
	queue *QueueService
	cfg   HealthServiceConfig
}

func NewHealthService(queue *QueueService, cfg HealthServiceConfig) *HealthService {
	return &HealthService{
		queue: queue,
		cfg:   cfg.normalize(),
	}
}

func (s *HealthService) Report(ctx context.Context) HealthReport {
	_, span := startUsecaseSpan(ctx, "usecase.HealthService.Report")
	defer span.End()

	pending, processing, completed, failed := s.queue.Counts()
	failureRate := s.queue.RecentFailureRate()

	status := HealthStatusHealthy
	switch {
	case pending > s.cfg.PendingUnhealthy || failureRate > s.cfg.FailureRateUnhealthy:
		status = HealthStatusUnhealthy
	case pending > s.cfg.PendingDegraded || failureRate > s.cfg.FailureRateDegraded || s.queue.IsPaused():
		status = HealthStatusDegraded
	}

	return HealthReport{
		Status: status,
		Metrics: HealthMetrics{
			PendingJobs:    pending,
			ProcessingJobs: processing,
			CompletedJobs:  completed,
			FailedJobs:     failed,
		},
	}
}
