package memory

import (
	"time"

	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/domain/team"
)

const (
	LeagueIDLiga1Indonesia = "idn-liga-1"
	LeagueIDPremierLeague  = "eng-premier-league"

	SeasonCurrent = "2025/2026"
)

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:            LeagueIDLiga1Indonesia,
			Name:          "Liga 1 Indonesia",
			CountryCode:   "ID",
			CurrentSeason: SeasonCurrent,
			FeedRefID:     8754,
		},
		{
			ID:            LeagueIDPremierLeague,
			Name:          "Premier League",
			CountryCode:   "GB",
			CurrentSeason: SeasonCurrent,
			FeedRefID:     501,
		},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "idn-persija", LeagueID: LeagueIDLiga1Indonesia, Name: "Persija Jakarta", Short: "PSJ"},
		{ID: "idn-persib", LeagueID: LeagueIDLiga1Indonesia, Name: "Persib Bandung", Short: "PSB"},
		{ID: "idn-persebaya", LeagueID: LeagueIDLiga1Indonesia, Name: "Persebaya Surabaya", Short: "PRB"},
		{ID: "idn-baliutd", LeagueID: LeagueIDLiga1Indonesia, Name: "Bali United", Short: "BU"},
		{ID: "eng-ars", LeagueID: LeagueIDPremierLeague, Name: "Arsenal", Short: "ARS"},
		{ID: "eng-liv", LeagueID: LeagueIDPremierLeague, Name: "Liverpool", Short: "LIV"},
		{ID: "eng-che", LeagueID: LeagueIDPremierLeague, Name: "Chelsea", Short: "CHE"},
		{ID: "eng-mci", LeagueID: LeagueIDPremierLeague, Name: "Manchester City", Short: "MCI"},
	}
}

// SeedMatches returns a small played-plus-upcoming schedule so the memory
// backend produces a non-empty table on the first recalculation.
func SeedMatches() []match.Match {
	return []match.Match{
		finishedMatch("mx-idn-001", LeagueIDLiga1Indonesia, 1, "idn-persija", "idn-persib", 2, 1,
			time.Date(2025, 8, 9, 12, 30, 0, 0, time.UTC)),
		finishedMatch("mx-idn-002", LeagueIDLiga1Indonesia, 1, "idn-persebaya", "idn-baliutd", 0, 0,
			time.Date(2025, 8, 10, 12, 30, 0, 0, time.UTC)),
		finishedMatch("mx-idn-003", LeagueIDLiga1Indonesia, 2, "idn-persib", "idn-persebaya", 3, 2,
			time.Date(2025, 8, 16, 12, 30, 0, 0, time.UTC)),
		finishedMatch("mx-idn-004", LeagueIDLiga1Indonesia, 2, "idn-baliutd", "idn-persija", 1, 1,
			time.Date(2025, 8, 17, 12, 30, 0, 0, time.UTC)),
		{
			ID:         "mx-idn-005",
			LeagueID:   LeagueIDLiga1Indonesia,
			Season:     SeasonCurrent,
			Matchday:   3,
			HomeTeamID: "idn-persija",
			AwayTeamID: "idn-persebaya",
			Status:     match.StatusScheduled,
			KickoffAt:  time.Date(2025, 8, 23, 12, 30, 0, 0, time.UTC),
		},
		finishedMatch("mx-eng-001", LeagueIDPremierLeague, 1, "eng-ars", "eng-liv", 2, 2,
			time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)),
		finishedMatch("mx-eng-002", LeagueIDPremierLeague, 1, "eng-che", "eng-mci", 0, 1,
			time.Date(2025, 8, 16, 17, 30, 0, 0, time.UTC)),
		{
			ID:         "mx-eng-003",
			LeagueID:   LeagueIDPremierLeague,
			Season:     SeasonCurrent,
			Matchday:   2,
			HomeTeamID: "eng-liv",
			AwayTeamID: "eng-che",
			Status:     match.StatusScheduled,
			KickoffAt:  time.Date(2025, 8, 24, 15, 0, 0, 0, time.UTC),
		},
	}
}

func finishedMatch(id, leagueID string, matchday int, homeID, awayID string, homeScore, awayScore int, kickoff time.Time) match.Match {
	finished := kickoff.Add(2 * time.Hour)

	return match.Match{
		ID:         id,
		LeagueID:   leagueID,
		Season:     SeasonCurrent,
		Matchday:   matchday,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		HomeScore:  &homeScore,
		AwayScore:  &awayScore,
		Status:     match.StatusFinished,
		KickoffAt:  kickoff,
		FinishedAt: &finished,
	}
}
