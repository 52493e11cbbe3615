package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/standings"
)

// StandingsService serves the read side: league registry lookups and the
// current table for a league season.
type StandingsService struct {
	leagueRepo    league.Repository
	standingsRepo standings.Repository
}

func NewStandingsService(leagueRepo league.Repository, standingsRepo standings.Repository) *StandingsService {
	return &StandingsService{
		leagueRepo:    leagueRepo,
		standingsRepo: standingsRepo,
	}
}

func (s *StandingsService) ListLeagues(ctx context.Context) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ListLeagues")
	defer span.End()

	items, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	return items, nil
}

// Table returns the stored table for a league season, ordered by position.
// A season that has never been calculated yields an empty table, not an error.
func (s *StandingsService) Table(ctx context.Context, leagueID, season string) (league.League, []standings.TableEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Table")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	season = strings.TrimSpace(season)
	if leagueID == "" {
		return league.League{}, nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if season == "" {
		return league.League{}, nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, nil, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	entries, err := s.standingsRepo.ListBySeason(ctx, leagueID, season)
	if err != nil {
		return league.League{}, nil, fmt.Errorf("list table league=%s season=%s: %w", leagueID, season, err)
	}

	return item, entries, nil
}
