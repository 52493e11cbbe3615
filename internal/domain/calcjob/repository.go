package calcjob

import "context"

// DispatchRepository records job lifecycle events for auditing. Writes are
// best-effort; callers log and continue on failure.
type DispatchRepository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
}
