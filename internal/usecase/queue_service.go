package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/platform/id"
	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/footdata/standings-engine/internal/platform/metrics"
)

const (
	defaultQueueMaxPending   = 100
	defaultProcessingTimeout = 30 * time.Second
	defaultJobHistoryLimit   = 50
	defaultOutcomeWindowSize = 20
)

type QueueServiceConfig struct {
	MaxPending        int
	ProcessingTimeout time.Duration
	HistoryLimit      int
	OutcomeWindow     int
	Retry             calcjob.RetryPolicy
}

func (c QueueServiceConfig) normalize() QueueServiceConfig {
	if c.MaxPending <= 0 {
		c.MaxPending = defaultQueueMaxPending
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = defaultProcessingTimeout
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaultJobHistoryLimit
	}
	if c.OutcomeWindow <= 0 {
		c.OutcomeWindow = defaultOutcomeWindowSize
	}
	c.Retry = c.Retry.Normalize()

	return c
}

// QueueStatus is an operator-facing view of the whole queue.
type QueueStatus struct {
	QueueLength   int
	ActiveJobs    int
	CompletedJobs int
	FailedJobs    int
	IsPaused      bool
	Jobs          []calcjob.Job
}

type rerunSpec struct {
	priority calcjob.Priority
	trigger  string
}

// QueueService is the in-process recalculation queue. All state lives behind
// one mutex; jobs are tracked from enqueue until they age out of the bounded
// terminal history.
type QueueService struct {
	leagueRepo league.Repository
	ids        id.Generator
	logger     *logging.Logger
	cfg        QueueServiceConfig
	now        func() time.Time

	mu         sync.Mutex
	jobs       map[string]*calcjob.Job
	activeKey  map[string]string
	pendingIDs map[calcjob.Priority][]string
	processing []string
	history    []string
	rerun      map[string]rerunSpec
	outcomes   []bool
	completed  int
	failed     int
	paused     bool
}

func NewQueueService(
	leagueRepo league.Repository,
	ids id.Generator,
	logger *logging.Logger,
	cfg QueueServiceConfig,
) *QueueService {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &QueueService{
		leagueRepo: leagueRepo,
		ids:        ids,
		logger:     logger,
		cfg:        cfg.normalize(),
		now:        time.Now,
		jobs:       make(map[string]*calcjob.Job),
		activeKey:  make(map[string]string),
		pendingIDs: make(map[calcjob.Priority][]string),
		rerun:      make(map[string]rerunSpec),
	}
}

// ProcessingTimeout exposes the stuck threshold so the orchestrator can bound
// per-job contexts to the same value.
func (s *QueueService) ProcessingTimeout() time.Duration {
	return s.cfg.ProcessingTimeout
}

// Enqueue registers a recalculation request. Requests for a league season
// that already has an active job merge into that job instead of queueing a
// second one; merged requests can only raise the job's priority. The returned
// bool reports whether the request was merged.
func (s *QueueService) Enqueue(ctx context.Context, leagueID, season, priorityRaw, trigger string) (calcjob.Job, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Enqueue")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	season = strings.TrimSpace(season)
	trigger = strings.TrimSpace(trigger)
	if leagueID == "" {
		return calcjob.Job{}, false, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if season == "" {
		return calcjob.Job{}, false, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if trigger == "" {
		trigger = calcjob.TriggerManual
	}

	priority, err := calcjob.ParsePriority(priorityRaw)
	if err != nil {
		return calcjob.Job{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, found, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		return calcjob.Job{}, false, fmt.Errorf("check league %s: %w", leagueID, err)
	} else if !found {
		return calcjob.Job{}, false, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}

	jobID, err := s.ids.NewID()
	if err != nil {
		return calcjob.Job{}, false, fmt.Errorf("generate job id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := calcjob.Key(leagueID, season)
	if activeID, ok := s.activeKey[key]; ok {
		merged := s.mergeLocked(activeID, priority, trigger)
		metrics.JobsDeduplicated.Inc()
		s.logger.InfoContext(ctx, "recalculation request merged",
			"job_id", merged.ID, "league_id", leagueID, "season", season, "priority", merged.Priority)
		return merged, true, nil
	}

	if s.pendingCountLocked() >= s.cfg.MaxPending {
		metrics.JobsRejected.Inc()
		return calcjob.Job{}, false, fmt.Errorf("%w: %d jobs pending", ErrQueueOverload, s.pendingCountLocked())
	}

	job := &calcjob.Job{
		ID:          jobID,
		LeagueID:    leagueID,
		Season:      season,
		Priority:    priority,
		Status:      calcjob.StatusPending,
		Trigger:     trigger,
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		EnqueuedAt:  s.now().UTC(),
	}
	s.jobs[job.ID] = job
	s.activeKey[key] = job.ID
	s.pendingIDs[priority] = append(s.pendingIDs[priority], job.ID)
	s.syncGaugesLocked()
	metrics.JobsEnqueued.Inc()

	s.logger.InfoContext(ctx, "recalculation job enqueued",
		"job_id", job.ID, "league_id", leagueID, "season", season, "priority", priority, "trigger", trigger)

	return *job, false, nil
}

// mergeLocked folds a duplicate request into the active job for its key.
// Pending jobs keep their queue slot unless the priority rises; processing
// jobs are flagged to rerun once the in-flight attempt finishes.
func (s *QueueService) mergeLocked(activeID string, priority calcjob.Priority, trigger string) calcjob.Job {
	job := s.jobs[activeID]

	switch job.Status {
	case calcjob.StatusPending:
		if priority.Weight() > job.Priority.Weight() {
			s.removePendingLocked(job.ID, job.Priority)
			job.Priority = priority
			s.pendingIDs[priority] = append(s.pendingIDs[priority], job.ID)
		}
	case calcjob.StatusProcessing:
		job.NeedsRerun = true
		spec, ok := s.rerun[job.ID]
		if !ok {
			spec = rerunSpec{priority: priority, trigger: trigger}
		} else {
			spec.priority = spec.priority.Max(priority)
		}
		s.rerun[job.ID] = spec
	}

	return *job
}

// Dequeue hands the next runnable job to a worker: highest priority class
// first, oldest first inside a class, skipping jobs still inside their retry
// backoff. Returns false when paused or nothing is eligible.
func (s *QueueService) Dequeue(now time.Time) (calcjob.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return calcjob.Job{}, false
	}

	for _, priority := range []calcjob.Priority{calcjob.PriorityHigh, calcjob.PriorityNormal, calcjob.PriorityLow} {
		queue := s.pendingIDs[priority]
		for i, jobID := range queue {
			job := s.jobs[jobID]
			if job.NotBefore.After(now) {
				continue
			}

			s.pendingIDs[priority] = append(queue[:i:i], queue[i+1:]...)
			started := now.UTC()
			job.Status = calcjob.StatusProcessing
			job.Attempts++
			job.StartedAt = &started
			s.processing = append(s.processing, job.ID)
			s.syncGaugesLocked()

			return *job, true
		}
	}

	return calcjob.Job{}, false
}

// Complete marks a processing job as done. Stale completions (for example a
// worker finishing after the reaper already reclaimed its job) are ignored.
func (s *QueueService) Complete(ctx context.Context, jobID string) (calcjob.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return calcjob.Job{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	if job.Status != calcjob.StatusProcessing {
		s.logger.WarnContext(ctx, "ignoring stale job completion", "job_id", jobID, "status", job.Status)
		return *job, nil
	}

	s.finishLocked(ctx, job, calcjob.StatusCompleted, "")
	s.completed++
	s.recordOutcomeLocked(false)
	metrics.JobsCompleted.Inc()
	s.syncGaugesLocked()

	return *job, nil
}

// Fail records a failed attempt. Transient failures retry with exponential
// backoff until the attempt budget runs out; anything else is terminal.
func (s *QueueService) Fail(ctx context.Context, jobID string, cause error, transient bool) (calcjob.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return calcjob.Job{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	if job.Status != calcjob.StatusProcessing {
		s.logger.WarnContext(ctx, "ignoring stale job failure", "job_id", jobID, "status", job.Status)
		return *job, nil
	}

	message := "unknown failure"
	if cause != nil {
		message = cause.Error()
	}

	if transient && job.Attempts < job.MaxAttempts {
		s.requeueLocked(job, message, job.Trigger)
		metrics.JobsRetried.Inc()
		s.logger.WarnContext(ctx, "recalculation attempt failed, retrying",
			"job_id", job.ID, "attempts", job.Attempts, "max_attempts", job.MaxAttempts,
			"not_before", job.NotBefore, "error", cause)
		s.syncGaugesLocked()
		return *job, nil
	}

	s.finishLocked(ctx, job, calcjob.StatusFailed, message)
	s.failed++
	s.recordOutcomeLocked(true)
	metrics.JobsFailed.Inc()
	s.syncGaugesLocked()

	return *job, nil
}

// Cancel removes a pending job from the queue. Jobs already running or
// finished cannot be cancelled.
func (s *QueueService) Cancel(ctx context.Context, jobID string) (calcjob.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Cancel")
	defer span.End()

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return calcjob.Job{}, fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return calcjob.Job{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	if job.Status != calcjob.StatusPending {
		return calcjob.Job{}, fmt.Errorf("%w: job %s is %s, only pending jobs can be cancelled", ErrInvalidInput, jobID, job.Status)
	}

	s.removePendingLocked(job.ID, job.Priority)
	s.finishLocked(ctx, job, calcjob.StatusCancelled, "")
	s.syncGaugesLocked()

	s.logger.InfoContext(ctx, "recalculation job cancelled", "job_id", job.ID, "league_id", job.LeagueID, "season", job.Season)

	return *job, nil
}

// Pause stops handing jobs to workers; in-flight jobs finish and enqueueing
// stays open.
func (s *QueueService) Pause(ctx context.Context) bool {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Pause")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		s.paused = true
		s.logger.InfoContext(ctx, "calculation queue paused")
	}

	return s.paused
}

func (s *QueueService) Resume(ctx context.Context) bool {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Resume")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		s.paused = false
		s.logger.InfoContext(ctx, "calculation queue resumed")
	}

	return s.paused
}

// ReapStuck reclaims processing jobs whose worker exceeded the processing
// timeout, treating the attempt as a transient failure.
func (s *QueueService) ReapStuck(ctx context.Context, now time.Time) []calcjob.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reaped []calcjob.Job
	for _, jobID := range append([]string(nil), s.processing...) {
		job := s.jobs[jobID]
		if job == nil || job.Status != calcjob.StatusProcessing || job.StartedAt == nil {
			continue
		}
		if now.Sub(*job.StartedAt) <= s.cfg.ProcessingTimeout {
			continue
		}

		message := fmt.Sprintf("processing exceeded %s", s.cfg.ProcessingTimeout)
		if job.Attempts < job.MaxAttempts {
			s.requeueLocked(job, message, calcjob.TriggerStuckRequeue)
		} else {
			s.finishLocked(ctx, job, calcjob.StatusFailed, message)
			s.failed++
			s.recordOutcomeLocked(true)
			metrics.JobsFailed.Inc()
		}
		metrics.JobsReaped.Inc()
		reaped = append(reaped, *job)

		s.logger.WarnContext(ctx, "reclaimed stuck recalculation job",
			"job_id", job.ID, "league_id", job.LeagueID, "season", job.Season,
			"attempts", job.Attempts, "status", job.Status)
	}
	if len(reaped) > 0 {
		s.syncGaugesLocked()
	}

	return reaped
}

// Status reports queue counters plus every tracked job: pending in dispatch
// order, then running, then recent terminal jobs newest first.
func (s *QueueService) Status(ctx context.Context) QueueStatus {
	_, span := startUsecaseSpan(ctx, "usecase.QueueService.Status")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]calcjob.Job, 0, len(s.jobs))
	for _, priority := range []calcjob.Priority{calcjob.PriorityHigh, calcjob.PriorityNormal, calcjob.PriorityLow} {
		for _, jobID := range s.pendingIDs[priority] {
			jobs = append(jobs, *s.jobs[jobID])
		}
	}
	for _, jobID := range s.processing {
		jobs = append(jobs, *s.jobs[jobID])
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		jobs = append(jobs, *s.jobs[s.history[i]])
	}

	return QueueStatus{
		QueueLength:   s.pendingCountLocked(),
		ActiveJobs:    len(s.processing),
		CompletedJobs: s.completed,
		FailedJobs:    s.failed,
		IsPaused:      s.paused,
		Jobs:          jobs,
	}
}

// Job looks up a single tracked job by id.
func (s *QueueService) Job(ctx context.Context, jobID string) (calcjob.Job, error) {
	_, span := startUsecaseSpan(ctx, "usecase.QueueService.Job")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[strings.TrimSpace(jobID)]
	if !ok {
		return calcjob.Job{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}

	return *job, nil
}

// Counts feeds the health reporter.
func (s *QueueService) Counts() (pending, processing, completed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pendingCountLocked(), len(s.processing), s.completed, s.failed
}

// RecentFailureRate is the failed share of the last few terminal outcomes;
// zero when nothing has finished yet.
func (s *QueueService) RecentFailureRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.outcomes) == 0 {
		return 0
	}
	failures := 0
	for _, failed := range s.outcomes {
		if failed {
			failures++
		}
	}

	return float64(failures) / float64(len(s.outcomes))
}

func (s *QueueService) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.paused
}

func (s *QueueService) pendingCountLocked() int {
	count := 0
	for _, queue := range s.pendingIDs {
		count += len(queue)
	}

	return count
}

func (s *QueueService) removePendingLocked(jobID string, priority calcjob.Priority) {
	queue := s.pendingIDs[priority]
	for i, queuedID := range queue {
		if queuedID == jobID {
			s.pendingIDs[priority] = append(queue[:i:i], queue[i+1:]...)
			return
		}
	}
}

func (s *QueueService) removeProcessingLocked(jobID string) {
	for i, processingID := range s.processing {
		if processingID == jobID {
			s.processing = append(s.processing[:i:i], s.processing[i+1:]...)
			return
		}
	}
}

// requeueLocked puts a failed or reclaimed attempt back at the end of its
// priority class with a jittered backoff gate.
func (s *QueueService) requeueLocked(job *calcjob.Job, message, trigger string) {
	s.removeProcessingLocked(job.ID)
	job.Status = calcjob.StatusPending
	job.Trigger = trigger
	job.LastError = message
	job.StartedAt = nil
	job.NotBefore = s.now().UTC().Add(s.cfg.Retry.Backoff(job.Attempts))
	s.pendingIDs[job.Priority] = append(s.pendingIDs[job.Priority], job.ID)
}

// finishLocked moves a job into a terminal state, spawns any merged rerun,
// and ages old terminal jobs out of the history.
func (s *QueueService) finishLocked(ctx context.Context, job *calcjob.Job, status calcjob.Status, message string) {
	s.removeProcessingLocked(job.ID)
	finished := s.now().UTC()
	job.Status = status
	job.FinishedAt = &finished
	job.LastError = message
	delete(s.activeKey, job.Key())

	s.history = append(s.history, job.ID)
	for len(s.history) > s.cfg.HistoryLimit {
		evicted := s.history[0]
		s.history = s.history[1:]
		delete(s.jobs, evicted)
	}

	if !job.NeedsRerun {
		return
	}
	job.NeedsRerun = false
	spec, ok := s.rerun[job.ID]
	delete(s.rerun, job.ID)
	if !ok {
		spec = rerunSpec{priority: job.Priority, trigger: job.Trigger}
	}

	rerunID, err := s.ids.NewID()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate rerun job id", "league_id", job.LeagueID, "season", job.Season, "error", err)
		return
	}
	rerun := &calcjob.Job{
		ID:          rerunID,
		LeagueID:    job.LeagueID,
		Season:      job.Season,
		Priority:    spec.priority,
		Status:      calcjob.StatusPending,
		Trigger:     spec.trigger,
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		EnqueuedAt:  s.now().UTC(),
	}
	s.jobs[rerun.ID] = rerun
	s.activeKey[rerun.Key()] = rerun.ID
	s.pendingIDs[rerun.Priority] = append(s.pendingIDs[rerun.Priority], rerun.ID)
	metrics.JobsEnqueued.Inc()

	s.logger.InfoContext(ctx, "spawned follow-up recalculation job",
		"job_id", rerun.ID, "league_id", rerun.LeagueID, "season", rerun.Season,
		"priority", rerun.Priority, "after_job_id", job.ID)
}

func (s *QueueService) recordOutcomeLocked(failed bool) {
	s.outcomes = append(s.outcomes, failed)
	if len(s.outcomes) > s.cfg.OutcomeWindow {
		s.outcomes = s.outcomes[len(s.outcomes)-s.cfg.OutcomeWindow:]
	}
}

func (s *QueueService) syncGaugesLocked() {
	metrics.QueuePending.Set(float64(s.pendingCountLocked()))
	metrics.QueueProcessing.Set(float64(len(s.processing)))
}
