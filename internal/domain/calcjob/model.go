package calcjob

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether a job in this status will never run again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes operator input; empty means normal.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return PriorityNormal, nil
	case string(PriorityLow):
		return PriorityLow, nil
	case string(PriorityNormal):
		return PriorityNormal, nil
	case string(PriorityHigh):
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// Weight orders priorities for dispatch; higher runs first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// Max keeps the stronger of two priorities when duplicate requests merge.
func (p Priority) Max(other Priority) Priority {
	if other.Weight() > p.Weight() {
		return other
	}

	return p
}

const (
	TriggerMatchResult  = "match-result"
	TriggerManual       = "manual"
	TriggerStuckRequeue = "stuck-requeue"
)

// Job is one standings recalculation request for a league season.
type Job struct {
	ID          string
	LeagueID    string
	Season      string
	Priority    Priority
	Status      Status
	Trigger     string
	Attempts    int
	MaxAttempts int
	EnqueuedAt  time.Time
	NotBefore   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	LastError   string
	NeedsRerun  bool
}

// Key identifies the one table a job recalculates; at most one active
// (pending or processing) job may exist per key.
func Key(leagueID, season string) string {
	return leagueID + "|" + season
}

func (j Job) Key() string {
	return Key(j.LeagueID, j.Season)
}
