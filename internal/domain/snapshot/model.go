package snapshot

import (
	"time"

	"github.com/footdata/standings-engine/internal/domain/standings"
)

const (
	ReasonPreRecalculation = "pre-recalculation"
	ReasonManual           = "manual"
	ReasonPreRestore       = "pre-restore"
)

// Snapshot is a point-in-time copy of one league season table, taken before
// every destructive table write so operators can roll back.
type Snapshot struct {
	ID         string
	LeagueID   string
	Season     string
	Reason     string
	JobID      string
	EntryCount int
	CreatedAt  time.Time
	Entries    []standings.TableEntry
}
