package httpapi

import (
	"net/http"
	"time"

	"github.com/footdata/standings-engine/internal/domain/snapshot"
)

type createSnapshotRequest struct {
	LeagueID string `json:"leagueId" validate:"required"`
	Season   string `json:"season" validate:"required"`
	Reason   string `json:"reason" validate:"omitempty,max=128"`
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSnapshots")
	defer span.End()

	query := r.URL.Query()
	leagueID := query.Get("leagueId")
	season := query.Get("season")

	snapshots, err := h.snapshotService.List(ctx, leagueID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "list snapshots failed", "league_id", leagueID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]snapshotDTO, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, snapshotToDTO(snap))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"snapshots": items})
}

func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSnapshot")
	defer span.End()

	var req createSnapshotRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.snapshotService.Create(ctx, req.LeagueID, req.Season, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "create snapshot failed", "league_id", req.LeagueID, "season", req.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, map[string]any{
		"success":    true,
		"snapshotId": snap.ID,
		"entryCount": snap.EntryCount,
	})
}

// RestoreSnapshot writes a stored table back as the current one. The replace
// is atomic, so a reader sees either the old table or the restored one.
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RestoreSnapshot")
	defer span.End()

	snapshotID := r.PathValue("snapshotID")
	snap, restored, err := h.snapshotService.Restore(ctx, snapshotID)
	if err != nil {
		h.logger.WarnContext(ctx, "restore snapshot failed", "snapshot_id", snapshotID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "snapshot restored",
		"snapshot_id", snap.ID, "league_id", snap.LeagueID, "season", snap.Season, "restored_entries", restored)

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"success":         true,
		"snapshotId":      snap.ID,
		"restoredEntries": restored,
	})
}

type snapshotDTO struct {
	ID         string `json:"id"`
	LeagueID   string `json:"leagueId"`
	Season     string `json:"season"`
	Reason     string `json:"reason"`
	JobID      string `json:"jobId,omitempty"`
	EntryCount int    `json:"entryCount"`
	CreatedAt  string `json:"createdAt"`
}

func snapshotToDTO(snap snapshot.Snapshot) snapshotDTO {
	return snapshotDTO{
		ID:         snap.ID,
		LeagueID:   snap.LeagueID,
		Season:     snap.Season,
		Reason:     snap.Reason,
		JobID:      snap.JobID,
		EntryCount: snap.EntryCount,
		CreatedAt:  snap.CreatedAt.UTC().Format(time.RFC3339),
	}
}
