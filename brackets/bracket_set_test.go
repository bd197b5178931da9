package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankedField returns n attendees with ids 1..n ranked in id order.
func rankedField(n int) []Attendee {
	out := make([]Attendee, n)
	for i := range out {
		out[i] = Attendee{Competitor: CompetitorID(i + 1), Rank: i + 1}
	}
	return out
}

func newMainSet(t *testing.T, n int) *BracketSet {
	t.Helper()
	s := NewBracketSet("main", 1, epee15, NewIDGenerator(0))
	s.SetAttendees(rankedField(n), nil)
	return s
}

// fenceTable scores every ready bout of a table, the lower id winning.
func fenceTable(t *testing.T, s *BracketSet, size int) {
	t.Helper()
	for n := 1; n <= size/2; n++ {
		b, err := s.Bout(size, n)
		if err != nil || !b.HasOpponents() || b.IsOver() {
			continue
		}
		a, _ := b.Competitor(SideA)
		c, _ := b.Competitor(SideB)
		winner := SideA
		if c < a {
			winner = SideB
		}
		require.NoError(t, s.SetScore(size, n, winner, s.Rules().Max, false))
		require.NoError(t, s.SetScore(size, n, winner.Other(), 5, false))
	}
}

func competitors(t *testing.T, s *BracketSet, size, number int) (CompetitorID, CompetitorID) {
	t.Helper()
	b, err := s.Bout(size, number)
	require.NoError(t, err)
	a, _ := b.Competitor(SideA)
	c, _ := b.Competitor(SideB)
	return a, c
}

func TestBracketSetStructure(t *testing.T) {
	s := newMainSet(t, 8)
	require.Equal(t, 4, s.Levels())

	tables := s.Tables()
	require.Len(t, tables, 4)
	assert.Equal(t, "Winner", tables[0].Title)
	assert.Equal(t, "Final", tables[1].Title)
	assert.Equal(t, "Semi-final", tables[2].Title)
	assert.Equal(t, "Table of 8", tables[3].Title)
	assert.Equal(t, "T8", tables[3].ID())

	nodes := s.Nodes()
	for i, n := range nodes {
		for _, c := range n.Children {
			if c >= 0 {
				assert.Greater(t, c, i, "children follow their parent in the arena")
				assert.Equal(t, i, nodes[c].Parent)
			}
		}
	}

	var pairs [][2]int
	for n := 1; n <= 4; n++ {
		a, b := competitors(t, s, 8, n)
		pairs = append(pairs, [2]int{int(min(a, b)), int(max(a, b))})
	}
	assert.Equal(t, [][2]int{{1, 8}, {4, 5}, {3, 6}, {2, 7}}, pairs)

	tbl, ok := s.Table(8)
	require.True(t, ok)
	assert.True(t, tbl.ReadyToFence)
	assert.False(t, tbl.IsOver)
	assert.False(t, s.IsOver())
}

func TestBracketSetFourEntrants(t *testing.T) {
	s := newMainSet(t, 4)
	a, b := competitors(t, s, 4, 1)
	assert.Equal(t, [2]CompetitorID{1, 4}, [2]CompetitorID{a, b})
	a, b = competitors(t, s, 4, 2)
	assert.Equal(t, [2]CompetitorID{3, 2}, [2]CompetitorID{a, b})
}

func TestBracketSetByes(t *testing.T) {
	s := newMainSet(t, 6)

	// Seeds 7 and 8 are missing, 1 and 2 go through untouched.
	for _, number := range []int{1, 4} {
		b, err := s.Bout(8, number)
		require.NoError(t, err)
		assert.True(t, b.IsExempt())
		assert.True(t, b.IsOver())
	}

	a, _ := competitors(t, s, 4, 1)
	assert.Equal(t, CompetitorID(1), a)
	_, b := competitors(t, s, 4, 2)
	assert.Equal(t, CompetitorID(2), b)

	fenceTable(t, s, 8)
	tbl, _ := s.Table(8)
	assert.True(t, tbl.IsOver)

	fenceTable(t, s, 4)
	fenceTable(t, s, 2)
	assert.True(t, s.IsOver())
	assert.Equal(t, CompetitorID(1), s.Winner())
}

func TestBracketSetPrunesEmptyBranches(t *testing.T) {
	s := newMainSet(t, 3)
	require.Equal(t, 3, s.Levels())

	b, err := s.Bout(4, 1)
	require.NoError(t, err)
	assert.True(t, b.IsExempt(), "seed 1 meets the empty seed 4")

	a, _ := competitors(t, s, 2, 1)
	assert.Equal(t, CompetitorID(1), a)
	_, c := competitors(t, s, 4, 2)
	assert.Equal(t, CompetitorID(2), c)
}

func TestBracketSetDeadBranches(t *testing.T) {
	s := NewBracketSet("P9", 9, epee15, nil)
	s.SetAttendees([]Attendee{{Competitor: 21}, {}, {}, {}, {Competitor: 25}}, nil)
	require.Equal(t, 4, s.Levels())

	_, err := s.Bout(8, 2)
	assert.ErrorIs(t, err, ErrBoutNotFound)
	_, err = s.Bout(8, 4)
	assert.ErrorIs(t, err, ErrBoutNotFound)

	b, err := s.Bout(8, 1)
	require.NoError(t, err)
	assert.True(t, b.IsExempt())

	a, c := competitors(t, s, 2, 1)
	assert.Equal(t, [2]CompetitorID{21, 25}, [2]CompetitorID{a, c})
	assert.Len(t, s.TableBouts(3), 2)
}

func TestBracketSetEditPropagation(t *testing.T) {
	s := newMainSet(t, 4)
	fenceTable(t, s, 4)

	a, b := competitors(t, s, 2, 1)
	assert.Equal(t, [2]CompetitorID{1, 2}, [2]CompetitorID{a, b})

	// Overturning the second semi-final changes the finalist.
	require.NoError(t, s.SetScore(4, 2, SideB, 9, false))
	require.NoError(t, s.SetScore(4, 2, SideA, 15, false))
	_, b = competitors(t, s, 2, 1)
	assert.Equal(t, CompetitorID(3), b)

	// An inconsistent edit takes the finalist back out.
	require.NoError(t, s.SetScore(4, 2, SideB, 15, false))
	final, err := s.Bout(2, 1)
	require.NoError(t, err)
	_, known := final.Competitor(SideB)
	assert.False(t, known)

	tbl, _ := s.Table(4)
	assert.False(t, tbl.IsOver)
	assert.True(t, tbl.HasError())
	assert.Equal(t, 2, tbl.FirstErrorBout)
	require.Error(t, s.FirstError())
	assert.ErrorIs(t, s.FirstError(), ErrInconsistentScore)
}

func TestBracketSetScoreText(t *testing.T) {
	s := newMainSet(t, 2)
	require.NoError(t, s.SetScoreText(2, 1, SideA, "V"))
	require.NoError(t, s.SetScoreText(2, 1, SideB, "11"))
	assert.True(t, s.IsOver())
	assert.Equal(t, CompetitorID(1), s.Winner())

	assert.ErrorIs(t, s.SetScoreText(2, 1, SideA, "abc"), ErrInvalidScore)
	assert.ErrorIs(t, s.SetScore(16, 1, SideA, 1, false), ErrBoutNotFound)
	assert.ErrorIs(t, s.SetScore(2, 2, SideA, 1, false), ErrBoutNotFound)
}

func TestBracketSetScoreBeforeOpponents(t *testing.T) {
	s := newMainSet(t, 4)
	assert.ErrorIs(t, s.SetScore(2, 1, SideA, 15, false), ErrBoutNotReady)
}

func TestBracketSetDropAndRestore(t *testing.T) {
	s := newMainSet(t, 4)

	require.NoError(t, s.Drop(4, ReasonWithdrawal))
	status, dropped := s.DroppedStatus(4)
	require.True(t, dropped)
	assert.Equal(t, ScoreWithdrawal, status)

	a, _ := competitors(t, s, 2, 1)
	assert.Equal(t, CompetitorID(1), a, "the opponent of a withdrawn fencer advances")

	require.NoError(t, s.Restore(4))
	_, dropped = s.DroppedStatus(4)
	assert.False(t, dropped)
	final, _ := s.Bout(2, 1)
	_, known := final.Competitor(SideA)
	assert.False(t, known)

	assert.ErrorIs(t, s.Restore(4), ErrCompetitorNotInBout)
	assert.ErrorIs(t, s.Drop(99, ReasonWithdrawal), ErrCompetitorNotInBout)
}

func TestBracketSetEditKeepsLaterWithdrawal(t *testing.T) {
	s := newMainSet(t, 8)
	fenceTable(t, s, 8)

	// 1 withdraws from the semi-final against 4.
	require.NoError(t, s.Drop(1, ReasonWithdrawal))
	semi, err := s.Bout(4, 1)
	require.NoError(t, err)
	require.True(t, semi.IsOver())

	// 5v4 goes through an inconsistent edit and back.
	require.NoError(t, s.SetScore(8, 2, SideA, 15, false))
	_, known := semi.Competitor(SideB)
	require.False(t, known)
	require.NoError(t, s.SetScore(8, 2, SideA, 5, false))

	status, dropped := s.DroppedStatus(1)
	require.True(t, dropped)
	assert.Equal(t, ScoreWithdrawal, status)
	assert.True(t, semi.IsOver())
	assert.Equal(t, CompetitorID(4), semi.Winner())

	a, _ := competitors(t, s, 2, 1)
	assert.Equal(t, CompetitorID(4), a)
}

func TestBracketSetFindBout(t *testing.T) {
	s := newMainSet(t, 4)
	size, number, ok := s.FindBout(3)
	require.True(t, ok)
	assert.Equal(t, 4, size)
	assert.Equal(t, 2, number)

	fenceTable(t, s, 4)
	size, number, ok = s.FindBout(2)
	require.True(t, ok)
	assert.Equal(t, 2, size)
	assert.Equal(t, 1, number)

	_, _, ok = s.FindBout(42)
	assert.False(t, ok)
}

func TestBracketSetNetIDs(t *testing.T) {
	ids := NewIDGenerator(10)
	s := NewBracketSet("main", 1, epee15, ids)
	s.SetAttendees(rankedField(4), nil)

	final, _ := s.Bout(2, 1)
	assert.Equal(t, 11, final.NetID)
	assert.Equal(t, 13, ids.Last(), "one id per fenced bout")
}

func TestBracketSetEmpty(t *testing.T) {
	s := NewBracketSet("P5", 5, epee15, nil)
	assert.True(t, s.IsEmpty())
	assert.False(t, s.IsOver())
	assert.Equal(t, NoCompetitor, s.Winner())
	assert.Empty(t, s.Classification())
}
