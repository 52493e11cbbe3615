package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsEnqueued     = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_enqueued_total", Help: "Recalculation jobs accepted into the queue"})
	JobsDeduplicated = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_deduplicated_total", Help: "Enqueue requests merged into an existing job"})
	JobsRejected     = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_rejected_total", Help: "Enqueue requests rejected because the queue was full"})
	JobsCompleted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_completed_total", Help: "Jobs that finished successfully"})
	JobsFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_failed_total", Help: "Jobs that failed terminally"})
	JobsRetried      = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_retried_total", Help: "Job attempts rescheduled after a transient failure"})
	JobsReaped       = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_jobs_reaped_total", Help: "Processing jobs reclaimed by the stuck-job reaper"})
	QueuePending     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "standings_queue_pending", Help: "Jobs waiting for a worker"})
	QueueProcessing  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "standings_queue_processing", Help: "Jobs currently running"})
	JobDuration      = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "standings_job_duration_seconds", Help: "Wall time of one recalculation run", Buckets: prometheus.DefBuckets})
	SnapshotsCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_snapshots_created_total", Help: "Table snapshots taken"})
	SnapshotRestores = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_snapshot_restores_total", Help: "Tables restored from a snapshot"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsEnqueued,
			JobsDeduplicated,
			JobsRejected,
			JobsCompleted,
			JobsFailed,
			JobsRetried,
			JobsReaped,
			QueuePending,
			QueueProcessing,
			JobDuration,
			SnapshotsCreated,
			SnapshotRestores,
		)
	})
	return promhttp.Handler()
}
