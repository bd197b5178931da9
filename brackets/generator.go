package brackets

import (
	"context"

	"github.com/Dosada05/fencing-tableau/models"
)

type GenerateBracketParams struct {
	SessionID   string
	Format      *models.Format
	Competitors []models.Competitor
	Rules       ScoreRules
	Seed        int64
}

// BracketGenerator flattens a format into a list of matches for previews and
// exports.
type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// BracketMatch is a flat, self-contained description of one bout of a
// generated format.
type BracketMatch struct {
	UID          string `json:"uid"`
	Round        int    `json:"round"`
	OrderInRound int    `json:"order_in_round"`

	Competitor1ID *int `json:"competitor1_id,omitempty"`
	Competitor2ID *int `json:"competitor2_id,omitempty"`

	SourceMatch1UID *string `json:"source_match1_uid,omitempty"`
	SourceMatch2UID *string `json:"source_match2_uid,omitempty"`

	IsPlaceholder bool `json:"is_placeholder"`

	IsBye           bool `json:"is_bye"`
	ByeCompetitorID *int `json:"bye_competitor_id,omitempty"`

	// Spacing is only set for pool bouts: the smaller rest of the two
	// competitors, -1 when either fences for the first time.
	Spacing *int `json:"spacing,omitempty"`
}

// Generators returns the registered generators keyed by format name.
func Generators() map[string]BracketGenerator {
	out := make(map[string]BracketGenerator)
	for _, g := range []BracketGenerator{NewSingleEliminationGenerator(), NewRoundRobinGenerator()} {
		out[g.GetName()] = g
	}
	return out
}

func attendeesOf(competitors []models.Competitor) []Attendee {
	out := make([]Attendee, len(competitors))
	for i, c := range competitors {
		out[i] = Attendee{Competitor: CompetitorID(c.ID), Rank: c.Rank}
	}
	return out
}
