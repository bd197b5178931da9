package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/models"
)

const maxSearchResults = 50

type BoutSearchResult struct {
	Competitor models.Competitor `json:"competitor"`
	Distance   int               `json:"distance"`
	Bout       brackets.BoutView `json:"bout"`
}

// SearchBouts finds the bouts of competitors whose name loosely matches the
// query, closest names first.
func (s *sessionService) SearchBouts(ctx context.Context, sessionID, query string) ([]BoutSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrValidationFailed)
	}

	results := []BoutSearchResult{}
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		if ls.router == nil {
			return fmt.Errorf("%w: elimination has not started", ErrStageConflict)
		}

		names := make([]string, len(ls.session.Competitors))
		for i, c := range ls.session.Competitors {
			names[i] = c.Name
		}
		ranks := fuzzy.RankFindNormalizedFold(query, names)
		sort.Sort(ranks)

		var views []brackets.BoutView
		for _, set := range ls.router.Sets() {
			views = append(views, set.BoutViews()...)
		}

		for _, r := range ranks {
			c := ls.session.Competitors[r.OriginalIndex]
			for _, v := range views {
				if v.Sides[0].CompetitorID != c.ID && v.Sides[1].CompetitorID != c.ID {
					continue
				}
				results = append(results, BoutSearchResult{Competitor: c, Distance: r.Distance, Bout: v})
				if len(results) == maxSearchResults {
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
