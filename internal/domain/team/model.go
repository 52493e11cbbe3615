package team

import "fmt"

// Team is one club registered to a league. Registration alone earns a table
// row: a club with zero finished matches still appears in the standings.
type Team struct {
	ID       string
	LeagueID string
	Name     string
	Short    string
}

func (t Team) Validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("team id is required")
	case t.LeagueID == "":
		return fmt.Errorf("team league id is required")
	case t.Name == "":
		return fmt.Errorf("team name is required")
	}

	return nil
}

// IDs extracts team identifiers in input order.
func IDs(teams []Team) []string {
	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}

	return ids
}
