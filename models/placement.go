package models

type PlacementStatus string

const (
	PlacementRanked    PlacementStatus = "ranked"
	PlacementWithdrawn PlacementStatus = "withdrawn"
	PlacementExcluded  PlacementStatus = "excluded"
)

// Placement is one row of the final classification. Excluded competitors have
// no place.
type Placement struct {
	CompetitorID int             `json:"competitor_id"`
	Place        int             `json:"place,omitempty"`
	Status       PlacementStatus `json:"status"`
	SetID        string          `json:"set_id,omitempty"`

	Competitor *Competitor `json:"competitor,omitempty"`
}
