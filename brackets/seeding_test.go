package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstRoundPairs(order []int) [][2]int {
	var out [][2]int
	for i := 0; i+1 < len(order); i += 2 {
		out = append(out, [2]int{min(order[i], order[i+1]), max(order[i], order[i+1])})
	}
	return out
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1}, SeedOrder(1))
	assert.Equal(t, []int{1, 2}, SeedOrder(2))
	assert.Equal(t, []int{1, 4, 3, 2}, SeedOrder(4))
	assert.Equal(t, []int{1, 8, 5, 4, 3, 6, 7, 2}, SeedOrder(8))

	assert.ElementsMatch(t, [][2]int{{1, 4}, {2, 3}}, firstRoundPairs(SeedOrder(4)))
	assert.ElementsMatch(t, [][2]int{{1, 8}, {4, 5}, {2, 7}, {3, 6}}, firstRoundPairs(SeedOrder(8)))
}

func TestSeedOrderCoversEveryRank(t *testing.T) {
	for size := 2; size <= 64; size *= 2 {
		order := SeedOrder(size)
		require.Len(t, order, size)
		seen := make(map[int]bool)
		for _, r := range order {
			require.True(t, r >= 1 && r <= size)
			require.False(t, seen[r])
			seen[r] = true
		}
		for _, p := range firstRoundPairs(order) {
			require.Equal(t, size+1, p[0]+p[1], "size %d pair %v", size, p)
		}
	}
}

func TestChildSeedRank(t *testing.T) {
	assert.Equal(t, 1, ChildSeedRank(2, 1, 0))
	assert.Equal(t, 2, ChildSeedRank(2, 1, 1))
	assert.Equal(t, 3, ChildSeedRank(4, 2, 0))
	assert.Equal(t, 2, ChildSeedRank(4, 2, 1))
}

func TestLevelsFor(t *testing.T) {
	assert.Equal(t, 1, levelsFor(1))
	assert.Equal(t, 2, levelsFor(2))
	assert.Equal(t, 3, levelsFor(3))
	assert.Equal(t, 3, levelsFor(4))
	assert.Equal(t, 4, levelsFor(8))
	assert.Equal(t, 5, levelsFor(9))
}

func TestRankAttendees(t *testing.T) {
	field := []Attendee{
		{Competitor: 1, Rank: 0},
		{Competitor: 2, Rank: 3},
		{Competitor: 3, Rank: 1},
		{Competitor: 4, Rank: 3},
		{Competitor: 5, Rank: 2},
	}

	ranked := RankAttendees(field, 0)
	ids := func(list []Attendee) []CompetitorID {
		out := make([]CompetitorID, len(list))
		for i, a := range list {
			out[i] = a.Competitor
		}
		return out
	}
	assert.Equal(t, []CompetitorID{3, 5, 2, 4, 1}, ids(ranked), "seed 0 keeps input order of ties, unranked last")
	assert.Equal(t, CompetitorID(1), field[0].Competitor, "input is not modified")
}

func TestRankAttendeesSeededTieBreak(t *testing.T) {
	var field []Attendee
	for i := 1; i <= 12; i++ {
		field = append(field, Attendee{Competitor: CompetitorID(i), Rank: 1})
	}
	reversed := make([]Attendee, len(field))
	for i, a := range field {
		reversed[len(field)-1-i] = a
	}

	a := RankAttendees(field, 42)
	b := RankAttendees(reversed, 42)
	assert.Equal(t, a, b, "same seed and field give the same order whatever the input order")
	assert.Equal(t, a, RankAttendees(field, 42))

	differs := false
	for seed := int64(1); seed <= 5 && !differs; seed++ {
		if seed == 42 {
			continue
		}
		c := RankAttendees(field, seed)
		for i := range c {
			if c[i] != a[i] {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs, "other seeds shuffle the ties differently")
}
