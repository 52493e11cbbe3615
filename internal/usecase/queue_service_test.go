package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/platform/logging"
)

var queueTestBase = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func newTestQueueService(cfg QueueServiceConfig) *QueueService {
	repo := newFakeLeagueRepo(
		league.League{ID: "eng-premier-league", Name: "Premier League", CountryCode: "GB", CurrentSeason: "2025/2026"},
		league.League{ID: "idn-liga-1", Name: "Liga 1 Indonesia", CountryCode: "ID", CurrentSeason: "2025/2026"},
		league.League{ID: "esp-la-liga", Name: "La Liga", CountryCode: "ES", CurrentSeason: "2025/2026"},
	)
	svc := NewQueueService(repo, &seqIDGenerator{prefix: "job"}, logging.NewNop(), cfg)
	svc.now = func() time.Time { return queueTestBase }

	return svc
}

func TestQueueServiceEnqueueDeduplicates(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	first, merged, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "normal", calcjob.TriggerManual)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if merged {
		t.Fatal("first enqueue must not merge")
	}
	if first.Status != calcjob.StatusPending || first.Priority != calcjob.PriorityNormal {
		t.Fatalf("unexpected job: %+v", first)
	}

	second, merged, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "high", calcjob.TriggerMatchResult)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !merged {
		t.Fatal("duplicate enqueue must merge")
	}
	if second.ID != first.ID {
		t.Fatalf("merge must keep the existing job, got %s vs %s", second.ID, first.ID)
	}
	if second.Priority != calcjob.PriorityHigh {
		t.Fatalf("merge must raise priority, got %s", second.Priority)
	}

	status := svc.Status(ctx)
	if status.QueueLength != 1 {
		t.Fatalf("expected a single pending job, got %d", status.QueueLength)
	}

	// A lower-priority duplicate must not demote the job.
	third, merged, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "low", calcjob.TriggerManual)
	if err != nil || !merged {
		t.Fatalf("expected merge, got merged=%t err=%v", merged, err)
	}
	if third.Priority != calcjob.PriorityHigh {
		t.Fatalf("expected priority to stay high, got %s", third.Priority)
	}
}

func TestQueueServiceEnqueueValidation(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	if _, _, err := svc.Enqueue(ctx, "  ", "2025/2026", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank league, got %v", err)
	}
	if _, _, err := svc.Enqueue(ctx, "eng-premier-league", "", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank season, got %v", err)
	}
	if _, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "urgent", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown priority, got %v", err)
	}
	if _, _, err := svc.Enqueue(ctx, "no-such-league", "2025/2026", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown league, got %v", err)
	}
}

func TestQueueServiceOverload(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{MaxPending: 2})
	ctx := context.Background()

	if _, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, _, err := svc.Enqueue(ctx, "idn-liga-1", "2025/2026", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, _, err := svc.Enqueue(ctx, "esp-la-liga", "2025/2026", "", ""); !errors.Is(err, ErrQueueOverload) {
		t.Fatalf("expected ErrQueueOverload, got %v", err)
	}

	// Duplicates of queued work merge even when the queue is full.
	if _, merged, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "high", ""); err != nil || !merged {
		t.Fatalf("expected merge under overload, got merged=%t err=%v", merged, err)
	}
}

func TestQueueServiceDispatchOrder(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	low, _, _ := svc.Enqueue(ctx, "eng-premier-league", "2023/2024", "low", "")
	normalFirst, _, _ := svc.Enqueue(ctx, "eng-premier-league", "2024/2025", "normal", "")
	high, _, _ := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "high", "")
	normalSecond, _, _ := svc.Enqueue(ctx, "idn-liga-1", "2025/2026", "normal", "")

	want := []string{high.ID, normalFirst.ID, normalSecond.ID, low.ID}
	for i, expected := range want {
		job, ok := svc.Dequeue(queueTestBase)
		if !ok {
			t.Fatalf("expected job at position %d", i)
		}
		if job.ID != expected {
			t.Fatalf("position %d: expected %s, got %s", i, expected, job.ID)
		}
		if job.Status != calcjob.StatusProcessing || job.Attempts != 1 {
			t.Fatalf("dequeued job not marked processing: %+v", job)
		}
	}

	if _, ok := svc.Dequeue(queueTestBase); ok {
		t.Fatal("expected empty queue")
	}
}

func TestQueueServiceRetrySchedule(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{
		Retry: calcjob.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
	})
	ctx := context.Background()

	enqueued, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	job, ok := svc.Dequeue(queueTestBase)
	if !ok || job.Attempts != 1 {
		t.Fatalf("expected first attempt, got ok=%t job=%+v", ok, job)
	}

	failed, err := svc.Fail(ctx, job.ID, errors.New("db timeout"), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if failed.Status != calcjob.StatusPending {
		t.Fatalf("transient failure with attempts left must requeue, got %s", failed.Status)
	}
	if !failed.NotBefore.After(queueTestBase) || failed.NotBefore.After(queueTestBase.Add(time.Second)) {
		t.Fatalf("first retry backoff out of range: %v", failed.NotBefore)
	}
	if failed.LastError == "" {
		t.Fatal("expected last error to be recorded")
	}

	if _, ok := svc.Dequeue(queueTestBase); ok {
		t.Fatal("job inside backoff window must not dispatch")
	}

	job, ok = svc.Dequeue(queueTestBase.Add(time.Second))
	if !ok || job.ID != enqueued.ID || job.Attempts != 2 {
		t.Fatalf("expected second attempt, got ok=%t job=%+v", ok, job)
	}
	if _, err := svc.Fail(ctx, job.ID, errors.New("db timeout"), true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	job, ok = svc.Dequeue(queueTestBase.Add(10 * time.Second))
	if !ok || job.Attempts != 3 {
		t.Fatalf("expected third attempt, got ok=%t job=%+v", ok, job)
	}

	failed, err = svc.Fail(ctx, job.ID, errors.New("db timeout"), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if failed.Status != calcjob.StatusFailed {
		t.Fatalf("attempt budget exhausted, expected failed, got %s", failed.Status)
	}

	status := svc.Status(ctx)
	if status.FailedJobs != 1 || status.QueueLength != 0 {
		t.Fatalf("unexpected counters: %+v", status)
	}
}

func TestQueueServicePermanentFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	if _, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	job, _ := svc.Dequeue(queueTestBase)

	failed, err := svc.Fail(ctx, job.ID, errors.New("unknown team in match"), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if failed.Status != calcjob.StatusFailed || failed.Attempts != 1 {
		t.Fatalf("permanent failure must be terminal on first attempt, got %+v", failed)
	}
}

func TestQueueServicePauseResume(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	if _, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if paused := svc.Pause(ctx); !paused {
		t.Fatal("expected paused state")
	}
	if _, ok := svc.Dequeue(queueTestBase); ok {
		t.Fatal("paused queue must not dispatch")
	}

	// Enqueueing stays open while paused.
	if _, _, err := svc.Enqueue(ctx, "idn-liga-1", "2025/2026", "", ""); err != nil {
		t.Fatalf("expected enqueue to work while paused, got %v", err)
	}

	if paused := svc.Resume(ctx); paused {
		t.Fatal("expected resumed state")
	}
	if _, ok := svc.Dequeue(queueTestBase); !ok {
		t.Fatal("resumed queue must dispatch")
	}
}

func TestQueueServiceCancel(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	job, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cancelled, err := svc.Cancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cancelled.Status != calcjob.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, ok := svc.Dequeue(queueTestBase); ok {
		t.Fatal("cancelled job must not dispatch")
	}

	// Cancelling frees the dedup slot for the league season.
	fresh, merged, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", "")
	if err != nil || merged {
		t.Fatalf("expected fresh job after cancel, got merged=%t err=%v", merged, err)
	}
	if fresh.ID == job.ID {
		t.Fatal("expected a new job id after cancel")
	}

	if _, err := svc.Cancel(ctx, "missing-job"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	running, _ := svc.Dequeue(queueTestBase)
	if _, err := svc.Cancel(ctx, running.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for processing job, got %v", err)
	}
}

func TestQueueServiceMergeWhileProcessingSpawnsRerun(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{})
	ctx := context.Background()

	first, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "normal", calcjob.TriggerManual)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	running, ok := svc.Dequeue(queueTestBase)
	if !ok {
		t.Fatal("expected job to dispatch")
	}

	merged, wasMerge, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "high", calcjob.TriggerMatchResult)
	if err != nil || !wasMerge {
		t.Fatalf("expected merge into processing job, got merged=%t err=%v", wasMerge, err)
	}
	if merged.ID != first.ID || !merged.NeedsRerun {
		t.Fatalf("expected needs-rerun flag on processing job, got %+v", merged)
	}
	if status := svc.Status(ctx); status.QueueLength != 0 {
		t.Fatalf("merge into processing job must not grow the queue, got %d", status.QueueLength)
	}

	if _, err := svc.Complete(ctx, running.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	status := svc.Status(ctx)
	if status.CompletedJobs != 1 {
		t.Fatalf("expected one completion, got %d", status.CompletedJobs)
	}
	if status.QueueLength != 1 {
		t.Fatalf("expected spawned follow-up job, got queue length %d", status.QueueLength)
	}

	rerun, ok := svc.Dequeue(queueTestBase)
	if !ok {
		t.Fatal("expected follow-up job to dispatch")
	}
	if rerun.ID == first.ID {
		t.Fatal("follow-up must be a fresh job")
	}
	if rerun.Priority != calcjob.PriorityHigh || rerun.Trigger != calcjob.TriggerMatchResult {
		t.Fatalf("follow-up must carry the merged request, got %+v", rerun)
	}
	if rerun.Attempts != 1 {
		t.Fatalf("follow-up starts with a clean attempt counter, got %d", rerun.Attempts)
	}
}

func TestQueueServiceReapStuck(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{
		ProcessingTimeout: 30 * time.Second,
		Retry:             calcjob.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 4 * time.Second},
	})
	ctx := context.Background()

	if _, _, err := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	job, _ := svc.Dequeue(queueTestBase)

	if reaped := svc.ReapStuck(ctx, queueTestBase.Add(10*time.Second)); len(reaped) != 0 {
		t.Fatalf("healthy job must not be reaped, got %d", len(reaped))
	}

	reaped := svc.ReapStuck(ctx, queueTestBase.Add(31*time.Second))
	if len(reaped) != 1 {
		t.Fatalf("expected one reaped job, got %d", len(reaped))
	}
	if reaped[0].Status != calcjob.StatusPending || reaped[0].Trigger != calcjob.TriggerStuckRequeue {
		t.Fatalf("reaped job with attempts left must requeue, got %+v", reaped[0])
	}

	// Second attempt also hangs; the attempt budget is spent, so the reaper
	// fails the job terminally.
	job, ok := svc.Dequeue(queueTestBase.Add(40 * time.Second))
	if !ok || job.Attempts != 2 {
		t.Fatalf("expected second attempt, got ok=%t job=%+v", ok, job)
	}
	reaped = svc.ReapStuck(ctx, queueTestBase.Add(80*time.Second))
	if len(reaped) != 1 || reaped[0].Status != calcjob.StatusFailed {
		t.Fatalf("expected terminal failure, got %+v", reaped)
	}

	if status := svc.Status(ctx); status.FailedJobs != 1 {
		t.Fatalf("expected failed counter 1, got %d", status.FailedJobs)
	}
}

func TestQueueServiceStatusOrderingAndHistory(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{HistoryLimit: 2})
	ctx := context.Background()

	seasons := []string{"2021/2022", "2022/2023", "2023/2024"}
	var terminalIDs []string
	for _, season := range seasons {
		job, _, err := svc.Enqueue(ctx, "eng-premier-league", season, "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := svc.Dequeue(queueTestBase); !ok {
			t.Fatal("expected dispatch")
		}
		if _, err := svc.Complete(ctx, job.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		terminalIDs = append(terminalIDs, job.ID)
	}

	pendingJob, _, _ := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", "")
	runningJob, _, _ := svc.Enqueue(ctx, "idn-liga-1", "2025/2026", "high", "")
	if dispatched, _ := svc.Dequeue(queueTestBase); dispatched.ID != runningJob.ID {
		t.Fatalf("expected high priority job to dispatch first, got %s", dispatched.ID)
	}

	status := svc.Status(ctx)
	if status.CompletedJobs != 3 {
		t.Fatalf("expected lifetime counter 3, got %d", status.CompletedJobs)
	}

	// Pending first, then running, then the bounded terminal history newest
	// first; the oldest completion has aged out.
	wantOrder := []string{pendingJob.ID, runningJob.ID, terminalIDs[2], terminalIDs[1]}
	if len(status.Jobs) != len(wantOrder) {
		t.Fatalf("expected %d jobs, got %d", len(wantOrder), len(status.Jobs))
	}
	for i, id := range wantOrder {
		if status.Jobs[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, status.Jobs[i].ID)
		}
	}

	if _, err := svc.Job(ctx, terminalIDs[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected evicted job to be gone, got %v", err)
	}
	if _, err := svc.Job(ctx, pendingJob.ID); err != nil {
		t.Fatalf("expected pending job lookup to work, got %v", err)
	}
}

func TestQueueServiceDelayedJobDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	svc := newTestQueueService(QueueServiceConfig{
		Retry: calcjob.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: 2 * time.Minute},
	})
	ctx := context.Background()

	delayed, _, _ := svc.Enqueue(ctx, "eng-premier-league", "2025/2026", "", "")
	job, _ := svc.Dequeue(queueTestBase)
	if _, err := svc.Fail(ctx, job.ID, errors.New("feed offline"), true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ready, _, _ := svc.Enqueue(ctx, "idn-liga-1", "2025/2026", "", "")

	got, ok := svc.Dequeue(queueTestBase.Add(time.Second))
	if !ok || got.ID != ready.ID {
		t.Fatalf("expected ready job to skip past delayed one, got ok=%t id=%s", ok, got.ID)
	}

	got, ok = svc.Dequeue(queueTestBase.Add(2 * time.Minute))
	if !ok || got.ID != delayed.ID {
		t.Fatalf("expected delayed job once eligible, got ok=%t id=%s", ok, got.ID)
	}
}
