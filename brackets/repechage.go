package brackets

import (
	"fmt"
	"slices"
)

// Placements holds the first places of the enabled repechage groups, e.g.
// 3 for the bronze bout, 5 for places 5-8.
type Placements map[int]bool

func NewPlacements(firstPlaces ...int) Placements {
	p := make(Placements, len(firstPlaces))
	for _, f := range firstPlaces {
		p[f] = true
	}
	return p
}

func (p Placements) Enabled(firstPlace int) bool { return p[firstPlace] }

// List returns the enabled first places in ascending order.
func (p Placements) List() []int {
	out := make([]int, 0, len(p))
	for f, on := range p {
		if on {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// Router owns the tree of placement groups hanging off a main bracket set and
// moves losers of finished tables into them. Sets are kept parent first.
type Router struct {
	sets       []*BracketSet
	placements Placements
	fieldSize  int
	ranks      map[CompetitorID]int
}

// NewRouter registers every enabled group the main set can feed. The main
// set must already hold its attendees.
func NewRouter(main *BracketSet, placements Placements) *Router {
	r := &Router{
		sets:       []*BracketSet{main},
		placements: placements,
		ranks:      make(map[CompetitorID]int),
	}
	for _, a := range main.attendees {
		if a.Competitor != NoCompetitor {
			r.fieldSize++
			r.ranks[a.Competitor] = a.Rank
		}
	}
	r.register(main, main.levels-1)
	return r
}

// register creates the child groups of set. The losers of the table at level
// L fill places first+2^(L-1) onwards, which leaves room for a full bracket
// only from L=2.
func (r *Router) register(set *BracketSet, maxLevel int) {
	for level := 2; level <= maxLevel; level++ {
		capacity := 1 << (level - 1)
		first := set.firstPlace + capacity
		if first >= r.fieldSize || !r.placements.Enabled(first) {
			continue
		}

		child := NewBracketSet(fmt.Sprintf("P%d", first), first, set.rules, set.ids)
		child.SetTitle(fmt.Sprintf("Places %d-%d", first, first+capacity-1))
		set.defeated[level] = child
		r.sets = append(r.sets, child)

		r.register(child, level-1)
	}
}

func (r *Router) Main() *BracketSet { return r.sets[0] }

func (r *Router) Placements() Placements { return r.placements }

func (r *Router) Sets() []*BracketSet {
	return append([]*BracketSet(nil), r.sets...)
}

func (r *Router) Set(id string) (*BracketSet, bool) {
	for _, s := range r.sets {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// Route seats the losers of the table at level of set into its repechage
// group. Re-routing an unchanged field keeps the group as it is.
func (r *Router) Route(set *BracketSet, level int) (*BracketSet, error) {
	child := set.defeated[level]
	if level < 2 || child == nil {
		return nil, fmt.Errorf("%w: %s level %d", ErrRoutingUnavailable, set.id, level)
	}
	if level >= len(set.tables) || !set.tables[level].IsOver {
		return child, fmt.Errorf("%w: %s %s", ErrTableNotOver, set.id, tableTitle(1<<level))
	}

	r.route(set, level)
	return child, nil
}

func (r *Router) route(set *BracketSet, level int) bool {
	child := set.defeated[level]
	losers := set.Losers(level)

	var attendees []Attendee
	if losers.Count > 0 {
		for _, c := range losers.Entrants {
			attendees = append(attendees, Attendee{Competitor: c, Rank: r.ranks[c]})
		}
	}

	if slices.Equal(child.attendees, attendees) && slices.Equal(child.withdrawals, losers.Withdrawals) {
		return false
	}

	child.SetAttendees(attendees, losers.Withdrawals)
	r.resetBelow(child)
	return true
}

func (r *Router) resetBelow(set *BracketSet) {
	for _, child := range set.defeated {
		child.SetAttendees(nil, nil)
		r.resetBelow(child)
	}
}

// Refresh routes the losers of every finished table that has a group, parent
// groups first, and returns the groups that were rebuilt.
func (r *Router) Refresh() []*BracketSet {
	var changed []*BracketSet
	for i := 0; i < len(r.sets); i++ {
		set := r.sets[i]
		for level := 2; level < len(set.tables); level++ {
			if set.defeated[level] == nil || !set.tables[level].IsOver {
				continue
			}
			if r.route(set, level) {
				changed = append(changed, set.defeated[level])
			}
		}
	}
	return changed
}

// FindBout looks for the latest bout of a competitor across all groups,
// lower groups first since they are fenced last.
func (r *Router) FindBout(competitor CompetitorID) (set *BracketSet, tableSize, number int, ok bool) {
	for i := len(r.sets) - 1; i >= 0; i-- {
		s := r.sets[i]
		if size, n, found := s.FindBout(competitor); found {
			if b, err := s.Bout(size, n); err == nil && !b.IsOver() {
				return s, size, n, true
			}
		}
	}
	for i := len(r.sets) - 1; i >= 0; i-- {
		s := r.sets[i]
		if size, n, found := s.FindBout(competitor); found {
			return s, size, n, true
		}
	}
	return nil, 0, 0, false
}
