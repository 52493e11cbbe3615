package httpapi

import (
	"net/http"
	"time"

	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/standings"
)

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.standingsService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeagueTable(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeagueTable")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	season := r.PathValue("season")

	lg, entries, err := h.standingsService.Table(ctx, leagueID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "get league table failed", "league_id", leagueID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueTableToDTO(lg, season, entries))
}

type leagueDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CountryCode   string `json:"countryCode"`
	CurrentSeason string `json:"currentSeason"`
}

type leagueTableDTO struct {
	LeagueID   string          `json:"leagueId"`
	LeagueName string          `json:"leagueName"`
	Season     string          `json:"season"`
	ComputedAt string          `json:"computedAt,omitempty"`
	Entries    []tableEntryDTO `json:"entries"`
}

type tableEntryDTO struct {
	Position       int    `json:"position"`
	TeamID         string `json:"teamId"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:            v.ID,
		Name:          v.Name,
		CountryCode:   v.CountryCode,
		CurrentSeason: v.CurrentSeason,
	}
}

// leagueTableToDTO lifts ComputedAt from the entries; every row of a table
// carries the same timestamp, so the first non-zero one wins.
func leagueTableToDTO(lg league.League, season string, entries []standings.TableEntry) leagueTableDTO {
	items := make([]tableEntryDTO, 0, len(entries))
	computedAt := ""
	for _, entry := range entries {
		items = append(items, tableEntryToDTO(entry))
		if computedAt == "" && !entry.ComputedAt.IsZero() {
			computedAt = entry.ComputedAt.UTC().Format(time.RFC3339)
		}
	}

	return leagueTableDTO{
		LeagueID:   lg.ID,
		LeagueName: lg.Name,
		Season:     season,
		ComputedAt: computedAt,
		Entries:    items,
	}
}

func tableEntryToDTO(entry standings.TableEntry) tableEntryDTO {
	return tableEntryDTO{
		Position:       entry.Position,
		TeamID:         entry.TeamID,
		Played:         entry.Played,
		Won:            entry.Won,
		Drawn:          entry.Drawn,
		Lost:           entry.Lost,
		GoalsFor:       entry.GoalsFor,
		GoalsAgainst:   entry.GoalsAgainst,
		GoalDifference: entry.GoalDifference,
		Points:         entry.Points,
	}
}
