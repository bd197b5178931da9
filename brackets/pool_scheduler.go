package brackets

import (
	"fmt"

	"github.com/Dosada05/fencing-tableau/models"
)

// minPoolSizeForFix is the smallest pool where rotating the order can help.
const minPoolSizeForFix = 5

// PoolScheduler orders every pairing of a round-robin pool so that a
// competitor rarely fences twice in a row.
type PoolScheduler struct {
	opponents []*Opponent
	pairs     []Pair
}

// NewPoolScheduler wraps the competitors into opponents numbered 1..N in the
// given order.
func NewPoolScheduler(competitors []CompetitorID) (*PoolScheduler, error) {
	if len(competitors) < 2 {
		return nil, ErrPoolTooSmall
	}

	ps := &PoolScheduler{}
	for i, c := range competitors {
		ps.opponents = append(ps.opponents, &Opponent{ID: i + 1, Competitor: c})
	}
	return ps, nil
}

// LoadPoolSchedule rebuilds a scheduler from a persisted order and audits its
// spacing again.
func LoadPoolSchedule(record models.PoolScheduleRecord) (*PoolScheduler, error) {
	competitors := make([]CompetitorID, len(record.Competitors))
	for i, c := range record.Competitors {
		competitors[i] = CompetitorID(c)
	}

	ps, err := NewPoolScheduler(competitors)
	if err != nil {
		return nil, err
	}

	n := len(competitors)
	if len(record.Pairs) != n*(n-1)/2 {
		return nil, fmt.Errorf("%w: %d pairs for %d competitors", ErrInvalidPoolSchedule, len(record.Pairs), n)
	}

	seen := make(map[[2]int]bool, len(record.Pairs))
	for i, p := range record.Pairs {
		a, b := p[0], p[1]
		if a < 1 || b < 1 || a > n || b > n || a == b {
			return nil, fmt.Errorf("%w: pair %d (%d, %d)", ErrInvalidPoolSchedule, i+1, a, b)
		}
		key := [2]int{min(a, b), max(a, b)}
		if seen[key] {
			return nil, fmt.Errorf("%w: pair %d-%d repeated", ErrInvalidPoolSchedule, key[0], key[1])
		}
		seen[key] = true
		ps.pairs = append(ps.pairs, Pair{Iteration: i + 1, A: a, B: b})
	}

	ps.RefreshSpacing()
	return ps, nil
}

func (ps *PoolScheduler) Size() int { return len(ps.opponents) }

// Opponent returns the opponent with the given 1-based id.
func (ps *PoolScheduler) Opponent(id int) *Opponent {
	if id < 1 || id > len(ps.opponents) {
		return nil
	}
	return ps.opponents[id-1]
}

func (ps *PoolScheduler) reset() {
	for _, o := range ps.opponents {
		o.fitness = 0
		o.remaining = o.remaining[:0]
		for _, other := range ps.opponents {
			if other != o {
				o.remaining = append(o.remaining, other)
			}
		}
	}
	ps.pairs = ps.pairs[:0]
}

// CreatePairs runs the greedy fitness-driven pairing from scratch.
func (ps *PoolScheduler) CreatePairs() []Pair {
	ps.reset()

	live := make([]*Opponent, len(ps.opponents))
	copy(live, ps.opponents)
	sortOpponents(live)

	iteration := 1
	for i := 0; i < len(live); {
		a := live[i]
		b := a.bestOpponent()
		if b == nil {
			i++
			continue
		}

		ps.pairs = append(ps.pairs, Pair{Iteration: iteration, A: a.ID, B: b.ID, ASpacing: -1, BSpacing: -1})
		a.fitness = iteration
		b.fitness = iteration
		iteration++

		sortOpponents(live)
		i = 0
	}

	return ps.Pairs()
}

// RefreshSpacing recomputes the spacing of every pair and returns how many
// pairs have a spacing error.
func (ps *PoolScheduler) RefreshSpacing() int {
	errs := 0
	for i := len(ps.pairs) - 1; i >= 0; i-- {
		p := &ps.pairs[i]
		p.ASpacing = ps.spacing(i, p.A)
		p.BSpacing = ps.spacing(i, p.B)
		if p.HasSpacingError() {
			errs++
		}
	}
	return errs
}

func (ps *PoolScheduler) spacing(at, opponent int) int {
	between := 0
	for j := at - 1; j >= 0; j-- {
		if ps.pairs[j].Has(opponent) {
			return between
		}
		between++
	}
	return -1
}

// FixErrors rotates the order once so the first pair with a spacing error
// opens the schedule. It reports whether a rotation happened; errors may
// remain afterwards.
func (ps *PoolScheduler) FixErrors() bool {
	if len(ps.opponents) < minPoolSizeForFix {
		return false
	}

	for i, p := range ps.pairs {
		if !p.HasSpacingError() {
			continue
		}
		if i == 0 {
			return false
		}
		rotated := make([]Pair, 0, len(ps.pairs))
		rotated = append(rotated, ps.pairs[i:]...)
		rotated = append(rotated, ps.pairs[:i]...)
		ps.pairs = rotated
		ps.RefreshSpacing()
		return true
	}
	return false
}

// Schedule builds the full pool order. The returned error wraps ErrSpacing
// when back-to-back bouts remain; the order is usable either way.
func (ps *PoolScheduler) Schedule() ([]Pair, error) {
	ps.CreatePairs()
	ps.RefreshSpacing()
	ps.FixErrors()

	if n := ps.SpacingErrors(); n > 0 {
		return ps.Pairs(), fmt.Errorf("%w: %d pairs", ErrSpacing, n)
	}
	return ps.Pairs(), nil
}

func (ps *PoolScheduler) SpacingErrors() int {
	n := 0
	for _, p := range ps.pairs {
		if p.HasSpacingError() {
			n++
		}
	}
	return n
}

func (ps *PoolScheduler) Pairs() []Pair {
	out := make([]Pair, len(ps.pairs))
	copy(out, ps.pairs)
	return out
}

// Competitors resolves the two competitors of a pair.
func (ps *PoolScheduler) Competitors(p Pair) (CompetitorID, CompetitorID) {
	var a, b CompetitorID
	if o := ps.Opponent(p.A); o != nil {
		a = o.Competitor
	}
	if o := ps.Opponent(p.B); o != nil {
		b = o.Competitor
	}
	return a, b
}

func (ps *PoolScheduler) Record(id string) models.PoolScheduleRecord {
	rec := models.PoolScheduleRecord{
		ID:            id,
		Competitors:   make([]int, len(ps.opponents)),
		Pairs:         make([][2]int, len(ps.pairs)),
		SpacingErrors: ps.SpacingErrors(),
	}
	for i, o := range ps.opponents {
		rec.Competitors[i] = int(o.Competitor)
	}
	for i, p := range ps.pairs {
		rec.Pairs[i] = [2]int{p.A, p.B}
	}
	return rec
}
