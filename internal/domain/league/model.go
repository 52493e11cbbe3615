package league

import "fmt"

// League is a competition whose table this service maintains. FeedRefID is
// the league's identifier on the external match feed; zero means the league
// has no feed binding and is recalculated from stored matches only.
type League struct {
	ID            string
	Name          string
	CountryCode   string
	CurrentSeason string
	FeedRefID     int64
}

func (l League) Validate() error {
	switch {
	case l.ID == "":
		return fmt.Errorf("league id is required")
	case l.Name == "":
		return fmt.Errorf("league name is required")
	case l.CountryCode == "":
		return fmt.Errorf("league country code is required")
	case l.CurrentSeason == "":
		return fmt.Errorf("league current season is required")
	}

	return nil
}
