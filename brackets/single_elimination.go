package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/fencing-tableau/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return models.FormatSingleElimination
}

// GenerateBracket seeds the competitors into a main bracket set and lists its
// bouts round by round. Byes resolve at once, later rounds point at the bouts
// that feed them.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if len(params.Competitors) < 2 {
		return nil, errors.New("not enough competitors to generate a single elimination bracket (minimum 2)")
	}

	set := NewBracketSet("preview", 1, params.Rules, nil)
	set.SetAttendees(RankAttendees(attendeesOf(params.Competitors), params.Seed), nil)

	uid := func(n BracketNode) string {
		return fmt.Sprintf("R%dM%d", set.levels-1-n.Level, n.Row+1)
	}

	var matches []*BracketMatch
	for _, n := range set.nodes {
		if n.Bout < 0 || n.IsLeaf() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b := set.bouts[n.Bout]
		bm := &BracketMatch{
			UID:          uid(n),
			Round:        set.levels - 1 - n.Level,
			OrderInRound: n.Row + 1,
		}

		for _, side := range []Side{SideA, SideB} {
			var competitor **int
			var sourceUID **string
			if side == SideA {
				competitor, sourceUID = &bm.Competitor1ID, &bm.SourceMatch1UID
			} else {
				competitor, sourceUID = &bm.Competitor2ID, &bm.SourceMatch2UID
			}

			if c, known := b.Competitor(side); known && c != NoCompetitor {
				id := int(c)
				*competitor = &id
				continue
			}
			child := set.nodes[n.Children[side]]
			if child.Bout >= 0 && !child.IsLeaf() {
				s := uid(child)
				*sourceUID = &s
				bm.IsPlaceholder = true
			}
		}

		if b.IsExempt() {
			if w := b.Winner(); w != NoCompetitor {
				id := int(w)
				bm.IsBye = true
				bm.ByeCompetitorID = &id
				bm.Competitor1ID = &id
				bm.Competitor2ID = nil
				bm.IsPlaceholder = false
			}
		}

		matches = append(matches, bm)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].OrderInRound < matches[j].OrderInRound
	})

	return matches, nil
}
