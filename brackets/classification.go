package brackets

import (
	"math"
	"sort"

	"github.com/Dosada05/fencing-tableau/models"
)

type classified struct {
	competitor CompetitorID
	bestLevel  int
	rank       int
	excluded   bool
}

func (a classified) compare(b classified) int {
	switch {
	case a.excluded != b.excluded:
		if a.excluded {
			return 1
		}
		return -1
	case a.bestLevel != b.bestLevel:
		return a.bestLevel - b.bestLevel
	}
	ra, rb := rankKey(a.rank), rankKey(b.rank)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// Classification ranks the competitors of this group by the furthest slot
// they reached, then by prior rank. Equal keys share a place, and so do the
// two semi-final losers unless a third place bout is fenced. Withdrawals
// follow.
func (s *BracketSet) Classification() []models.Placement {
	ranks := make(map[CompetitorID]int, len(s.attendees))
	for _, a := range s.attendees {
		ranks[a.Competitor] = a.Rank
	}

	var rows []classified
	seen := make(map[CompetitorID]bool)
	queue := []int{}
	if len(s.nodes) > 0 {
		queue = append(queue, 0)
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		n := s.nodes[i]

		if n.Bout >= 0 {
			b := s.bouts[n.Bout]
			if w := b.Winner(); b.IsOver() && w != NoCompetitor && !seen[w] {
				seen[w] = true
				status, _ := s.DroppedStatus(w)
				rows = append(rows, classified{
					competitor: w,
					bestLevel:  n.Level,
					rank:       ranks[w],
					excluded:   status == ScoreBlackCard,
				})
			}
		}
		for _, c := range n.Children {
			if c >= 0 {
				queue = append(queue, c)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].compare(rows[j]) < 0 })

	out := make([]models.Placement, 0, len(rows)+len(s.withdrawals))
	place := 0
	for i, row := range rows {
		pos := s.firstPlace + i
		if i == 0 || (rows[i-1].compare(row) != 0 && s.placeIsFenced(pos)) {
			place = pos
		}
		p := models.Placement{
			CompetitorID: int(row.competitor),
			Place:        place,
			Status:       models.PlacementRanked,
			SetID:        s.id,
		}
		if row.excluded {
			p.Place = 0
			p.Status = models.PlacementExcluded
		}
		out = append(out, p)
	}

	for i, w := range s.withdrawals {
		out = append(out, models.Placement{
			CompetitorID: int(w),
			Place:        s.firstPlace + len(rows) + i,
			Status:       models.PlacementWithdrawn,
			SetID:        s.id,
		})
	}
	return out
}

// placeIsFenced tells whether place is decided on the piste. The fourth place
// of a group only is when the group runs a third place bout.
func (s *BracketSet) placeIsFenced(place int) bool {
	if place == s.firstPlace+3 {
		return s.defeated[2] != nil
	}
	return true
}

// Classification merges the groups: a competitor placed by a lower group
// takes that place, excluded competitors are moved to the end.
func (r *Router) Classification() []models.Placement {
	byCompetitor := make(map[int]models.Placement)
	var order []int

	for _, set := range r.sets {
		for _, p := range set.Classification() {
			if _, ok := byCompetitor[p.CompetitorID]; !ok {
				order = append(order, p.CompetitorID)
			}
			prev, ok := byCompetitor[p.CompetitorID]
			if ok && prev.Status == models.PlacementExcluded {
				continue
			}
			byCompetitor[p.CompetitorID] = p
		}
	}

	out := make([]models.Placement, 0, len(order))
	for _, id := range order {
		out = append(out, byCompetitor[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return placeKey(out[i]) < placeKey(out[j])
	})
	return out
}

func placeKey(p models.Placement) int {
	if p.Status == models.PlacementExcluded {
		return math.MaxInt
	}
	return p.Place
}
