package match

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Match is one fixture between two clubs in a league season.
// Scores stay nil until the match has been played.
type Match struct {
	ID         string
	LeagueID   string
	Season     string
	Matchday   int
	HomeTeamID string
	AwayTeamID string
	HomeScore  *int
	AwayScore  *int
	Status     string
	KickoffAt  time.Time
	FinishedAt *time.Time
}

func NormalizeStatus(raw string) string {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if status == "" {
		return StatusScheduled
	}

	return status
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "INPLAY", "IN_PLAY", "1H", "2H", "HT", "ET":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED", "AWARDED", "WALKOVER":
		return true
	default:
		return false
	}
}

func (m Match) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(m.LeagueID) == "" {
		return fmt.Errorf("match league id is required")
	}
	if strings.TrimSpace(m.Season) == "" {
		return fmt.Errorf("match season is required")
	}
	if strings.TrimSpace(m.HomeTeamID) == "" || strings.TrimSpace(m.AwayTeamID) == "" {
		return fmt.Errorf("match requires both team ids")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match cannot pair a team with itself")
	}
	if m.HomeScore != nil && *m.HomeScore < 0 {
		return fmt.Errorf("home score cannot be negative")
	}
	if m.AwayScore != nil && *m.AwayScore < 0 {
		return fmt.Errorf("away score cannot be negative")
	}
	if IsFinishedStatus(m.Status) && !m.HasFinalScore() {
		return fmt.Errorf("finished match requires both scores")
	}

	return nil
}

// HasFinalScore reports whether both sides have a recorded score.
func (m Match) HasFinalScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}
