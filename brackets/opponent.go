package brackets

import "sort"

// Opponent is the pool scheduling state of one competitor.
type Opponent struct {
	ID         int
	Competitor CompetitorID

	// fitness is the iteration at which the opponent was last paired.
	fitness   int
	remaining []*Opponent
}

func (o *Opponent) Fitness() int { return o.fitness }

// Remaining is how many opponents this one still has to meet.
func (o *Opponent) Remaining() int { return len(o.remaining) }

// bestOpponent takes the least recently paired opponent out of the working
// set, and removes o from theirs.
func (o *Opponent) bestOpponent() *Opponent {
	if len(o.remaining) == 0 {
		return nil
	}
	sortOpponents(o.remaining)

	best := o.remaining[0]
	o.remaining = o.remaining[1:]
	best.forget(o)
	return best
}

func (o *Opponent) forget(other *Opponent) {
	for i, r := range o.remaining {
		if r == other {
			o.remaining = append(o.remaining[:i], o.remaining[i+1:]...)
			return
		}
	}
}

// sortOpponents orders by fitness; equal fitness keeps ascending ids.
func sortOpponents(list []*Opponent) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].fitness != list[j].fitness {
			return list[i].fitness < list[j].fitness
		}
		return list[i].ID < list[j].ID
	})
}
