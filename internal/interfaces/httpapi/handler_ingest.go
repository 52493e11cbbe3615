package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/usecase"
)

type matchResultRequest struct {
	MatchID    string `json:"matchId" validate:"required"`
	LeagueID   string `json:"leagueId" validate:"required"`
	Season     string `json:"season" validate:"required"`
	Matchday   int    `json:"matchday" validate:"omitempty,min=1"`
	HomeTeamID string `json:"homeTeamId" validate:"required"`
	AwayTeamID string `json:"awayTeamId" validate:"required"`
	HomeScore  *int   `json:"homeScore"`
	AwayScore  *int   `json:"awayScore"`
	Status     string `json:"status" validate:"required"`
	KickoffAt  string `json:"kickoffAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	FinishedAt string `json:"finishedAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// IngestMatchResult records a match result pushed by the feed gateway and,
// for finished matches, kicks off a high-priority recalculation of the
// affected table.
func (h *Handler) IngestMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestMatchResult")
	defer span.End()

	var req matchResultRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := matchFromRequest(req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	job, enqueued, err := h.matchResultService.Ingest(ctx, item)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest match result failed",
			"match_id", req.MatchID, "league_id", req.LeagueID, "season", req.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	resp := map[string]any{
		"success":  true,
		"matchId":  item.ID,
		"enqueued": enqueued,
	}
	if enqueued {
		resp["jobId"] = job.ID
	}

	writeSuccess(ctx, w, http.StatusOK, resp)
}

func matchFromRequest(req matchResultRequest) (match.Match, error) {
	item := match.Match{
		ID:         req.MatchID,
		LeagueID:   req.LeagueID,
		Season:     req.Season,
		Matchday:   req.Matchday,
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		HomeScore:  req.HomeScore,
		AwayScore:  req.AwayScore,
		Status:     req.Status,
	}

	if req.KickoffAt != "" {
		kickoff, err := time.Parse(time.RFC3339, req.KickoffAt)
		if err != nil {
			return match.Match{}, fmt.Errorf("%w: invalid kickoffAt: %v", usecase.ErrInvalidInput, err)
		}
		item.KickoffAt = kickoff.UTC()
	}
	if req.FinishedAt != "" {
		finished, err := time.Parse(time.RFC3339, req.FinishedAt)
		if err != nil {
			return match.Match{}, fmt.Errorf("%w: invalid finishedAt: %v", usecase.ErrInvalidInput, err)
		}
		finishedUTC := finished.UTC()
		item.FinishedAt = &finishedUTC
	}

	return item, nil
}
