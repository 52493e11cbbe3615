package snapshot

import "context"

// Repository stores point-in-time copies of season tables for restore.
// List returns metadata-plus-entries rows newest first; leagueID and season
// may be empty to list across all tables.
type Repository interface {
	Save(ctx context.Context, snap Snapshot) error
	GetByID(ctx context.Context, snapshotID string) (Snapshot, bool, error)
	List(ctx context.Context, leagueID, season string, limit int) ([]Snapshot, error)
	DeleteOldest(ctx context.Context, leagueID, season string, keep int) (int, error)
}
