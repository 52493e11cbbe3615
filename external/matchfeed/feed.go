package matchfeed

import (
	"strings"
	"time"

	"github.com/footdata/standings-engine/internal/domain/match"
)

type resultsEnvelope struct {
	Data []feedResult `json:"data"`
}

type feedResult struct {
	MatchID    string `json:"match_id"`
	Matchday   int    `json:"matchday"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
	HomeScore  *int   `json:"home_score"`
	AwayScore  *int   `json:"away_score"`
	Status     string `json:"status"`
	KickoffAt  string `json:"kickoff_at"`
	FinishedAt string `json:"finished_at"`
}

func mapFeedResult(leagueID, season string, item feedResult) (match.Match, bool) {
	mapped := match.Match{
		ID:         strings.TrimSpace(item.MatchID),
		LeagueID:   leagueID,
		Season:     season,
		Matchday:   item.Matchday,
		HomeTeamID: strings.TrimSpace(item.HomeTeamID),
		AwayTeamID: strings.TrimSpace(item.AwayTeamID),
		HomeScore:  item.HomeScore,
		AwayScore:  item.AwayScore,
		Status:     match.NormalizeStatus(item.Status),
	}

	if kickoff := parseFeedDateTime(item.KickoffAt); kickoff != nil {
		mapped.KickoffAt = *kickoff
	}
	mapped.FinishedAt = parseFeedDateTime(item.FinishedAt)
	if mapped.FinishedAt == nil {
		mapped.FinishedAt = inferFinishedAt(mapped.Status, mapped.KickoffAt)
	}

	if err := mapped.Validate(); err != nil {
		return match.Match{}, false
	}

	return mapped, true
}

func parseFeedDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

// inferFinishedAt stamps a finished result that arrived without a finish
// time at kickoff plus 105 minutes, a regulation match with half-time.
func inferFinishedAt(status string, kickoffAt time.Time) *time.Time {
	if !match.IsFinishedStatus(status) || kickoffAt.IsZero() {
		return nil
	}
	value := kickoffAt.UTC().Add(105 * time.Minute)
	return &value
}
