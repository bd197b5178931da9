package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/fencing-tableau/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return models.FormatRoundRobin
}

// GenerateBracket orders the pool bouts with the pool scheduler. A double
// round-robin replays the same order with sides swapped.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if len(params.Competitors) < 2 {
		return nil, fmt.Errorf("round robin: not enough competitors (found %d, min 2 required)", len(params.Competitors))
	}

	rounds := 1
	if params.Format != nil {
		settings, err := params.Format.GetRoundRobinSettings()
		if err != nil {
			return nil, fmt.Errorf("round robin: invalid settings: %w", err)
		}
		if settings != nil {
			rounds = settings.NumberOfRounds
		}
	}

	ids := make([]CompetitorID, len(params.Competitors))
	for i, c := range params.Competitors {
		ids[i] = CompetitorID(c.ID)
	}
	ps, err := NewPoolScheduler(ids)
	if err != nil {
		return nil, err
	}
	// Spacing errors are reported per match, the order stays usable.
	pairs, _ := ps.Schedule()

	matches := make([]*BracketMatch, 0, len(pairs)*rounds)
	for leg := 1; leg <= rounds; leg++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, p := range pairs {
			a, b := ps.Competitors(p)
			if leg == 2 {
				a, b = b, a
			}
			c1, c2 := int(a), int(b)
			spacing := min(p.ASpacing, p.BSpacing)

			matches = append(matches, &BracketMatch{
				UID:           fmt.Sprintf("%s_RR%d_L%d_P%dvsP%d", params.SessionID, i+1, leg, c1, c2),
				Round:         leg,
				OrderInRound:  i + 1,
				Competitor1ID: &c1,
				Competitor2ID: &c2,
				Spacing:       &spacing,
			})
		}
	}

	return matches, nil
}
