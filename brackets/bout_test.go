package brackets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epee15 = ScoreRules{Max: 15}

func newFencedBout(t *testing.T, rules ScoreRules, a, b CompetitorID) *Bout {
	t.Helper()
	bout := NewBout(1, rules)
	bout.SetCompetitor(SideA, a)
	bout.SetCompetitor(SideB, b)
	require.True(t, bout.HasOpponents())
	return bout
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in       string
		value    int
		best     bool
		hasError bool
	}{
		{in: "V", value: 15, best: true},
		{in: "v12", value: 12, best: true},
		{in: "W7", value: 7, best: true},
		{in: " 9 ", value: 9},
		{in: "", hasError: true},
		{in: "X", hasError: true},
		{in: "-3", hasError: true},
	}
	for _, tt := range tests {
		value, best, err := ParseScore(tt.in, epee15)
		if tt.hasError {
			assert.ErrorIs(t, err, ErrInvalidScore, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.value, value, "input %q", tt.in)
		assert.Equal(t, tt.best, best, "input %q", tt.in)
	}
}

func TestScoreImage(t *testing.T) {
	var s Score
	s.Set(15, false, epee15)
	assert.Equal(t, "V", s.Image(epee15))
	assert.Equal(t, StatusVictory, s.StatusCode())

	s.Set(5, true, epee15)
	assert.Equal(t, "V5", s.Image(epee15))

	s.Set(11, false, epee15)
	assert.Equal(t, "11", s.Image(epee15))
	assert.Equal(t, StatusDefeat, s.StatusCode())

	s.Clean()
	assert.Empty(t, s.Image(epee15))
	assert.False(t, s.IsKnown())
}

func TestParseDropReason(t *testing.T) {
	r, err := ParseDropReason("f")
	require.NoError(t, err)
	assert.Equal(t, ReasonWithdrawal, r)

	r, err = ParseDropReason("E")
	require.NoError(t, err)
	assert.Equal(t, ReasonBlackCard, r)

	_, err = ParseDropReason("Z")
	assert.ErrorIs(t, err, ErrInvalidDropReason)
}

func TestBoutWinnerByScore(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.SetScore(SideA, 12, false))
	assert.False(t, b.IsOver())
	assert.Equal(t, NoCompetitor, b.Winner())

	require.NoError(t, b.SetScore(SideB, 15, false))
	require.NoError(t, b.Err())
	assert.True(t, b.IsOver())
	assert.Equal(t, CompetitorID(2), b.Winner())
	assert.Equal(t, CompetitorID(1), b.Loser())
}

func TestBoutUndeterminedWinnerAboveFifteen(t *testing.T) {
	relay := ScoreRules{Max: 45}

	b := newFencedBout(t, relay, 1, 2)
	require.NoError(t, b.SetScore(SideA, 15, false))
	require.NoError(t, b.SetScore(SideB, 14, false))

	err := b.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentScore))
	assert.True(t, errors.Is(err, ErrUndeterminedWinner))
	assert.True(t, b.HasError())
	assert.False(t, b.IsOver())
	assert.Equal(t, NoCompetitor, b.Winner())
}

func TestBoutBestFlagDecides(t *testing.T) {
	relay := ScoreRules{Max: 45}

	b := newFencedBout(t, relay, 1, 2)
	require.NoError(t, b.SetScore(SideA, 15, true))
	require.NoError(t, b.SetScore(SideB, 10, false))
	require.NoError(t, b.Err())
	assert.Equal(t, CompetitorID(1), b.Winner())

	// A tie is only resolved by the flag.
	tie := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, tie.SetScore(SideA, 8, false))
	require.NoError(t, tie.SetScore(SideB, 8, true))
	require.NoError(t, tie.Err())
	assert.Equal(t, CompetitorID(2), tie.Winner())
}

func TestBoutScoreErrors(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.SetScore(SideA, 16, false))
	require.NoError(t, b.SetScore(SideB, 3, false))
	assert.ErrorIs(t, b.Err(), ErrInvalidScore)

	both := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, both.SetScore(SideA, 15, false))
	require.NoError(t, both.SetScore(SideB, 15, false))
	err := both.Err()
	assert.ErrorIs(t, err, ErrInconsistentScore)
	assert.False(t, errors.Is(err, ErrUndeterminedWinner))

	// A flagged winner with fewer touches is inconsistent.
	low := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, low.SetScore(SideA, 4, true))
	require.NoError(t, low.SetScore(SideB, 9, false))
	assert.ErrorIs(t, low.Err(), ErrInconsistentScore)

	overflow := newFencedBout(t, ScoreRules{Max: 15, AllowOverflow: true}, 1, 2)
	require.NoError(t, overflow.SetScore(SideA, 17, true))
	require.NoError(t, overflow.SetScore(SideB, 16, false))
	require.NoError(t, overflow.Err())
	assert.Equal(t, CompetitorID(1), overflow.Winner())
}

func TestBoutNotReady(t *testing.T) {
	b := NewBout(1, epee15)
	b.SetCompetitor(SideA, 1)
	assert.ErrorIs(t, b.SetScore(SideA, 5, false), ErrBoutNotReady)
}

func TestBoutBye(t *testing.T) {
	b := NewBout(1, epee15)
	b.SetCompetitor(SideB, NoCompetitor)
	assert.True(t, b.IsExempt())
	assert.False(t, b.IsOver(), "the present side is still unknown")

	b.SetCompetitor(SideA, 7)
	assert.True(t, b.IsOver())
	assert.Equal(t, CompetitorID(7), b.Winner())

	b.ClearCompetitor(SideA)
	assert.False(t, b.IsOver())
	b.SetCompetitor(SideA, 8)
	assert.True(t, b.IsOver())
	assert.Equal(t, CompetitorID(8), b.Winner())
}

func TestBoutCompetitorChangeCleansScores(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.SetScore(SideA, 15, false))
	require.NoError(t, b.SetScore(SideB, 2, false))
	require.True(t, b.IsOver())

	b.SetCompetitor(SideB, 2)
	assert.True(t, b.IsOver(), "same competitor keeps the scores")

	b.SetCompetitor(SideB, 3)
	assert.False(t, b.IsOver())
	assert.False(t, b.IsStarted())
}

func TestBoutDropAndRestore(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.SetScore(SideA, 4, false))
	require.NoError(t, b.SetScore(SideB, 6, false))

	require.NoError(t, b.Drop(2, ReasonWithdrawal))
	assert.True(t, b.IsDropped())
	assert.True(t, b.IsOver())
	assert.Equal(t, CompetitorID(1), b.Winner())
	scoreA := b.Score(SideA)
	assert.Equal(t, 15, scoreA.Value())
	assert.Equal(t, ScoreOpponentOut, scoreA.Status())

	require.NoError(t, b.Restore(2))
	assert.False(t, b.IsDropped())
	scoreA = b.Score(SideA)
	assert.Equal(t, 4, scoreA.Value())
	assert.False(t, b.IsOver())

	assert.ErrorIs(t, b.Drop(9, ReasonWithdrawal), ErrCompetitorNotInBout)
	assert.ErrorIs(t, b.Drop(1, DropReason("Q")), ErrInvalidDropReason)
}

func TestBoutDroppedIsClosed(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.SetScore(SideA, 4, false))
	require.NoError(t, b.Drop(2, ReasonWithdrawal))

	assert.ErrorIs(t, b.SetScore(SideB, 4, false), ErrBoutDropped)
	assert.ErrorIs(t, b.SetScore(SideA, 9, false), ErrBoutDropped)
	scoreB := b.Score(SideB)
	assert.Equal(t, ScoreWithdrawal, scoreB.Status())
	assert.Equal(t, CompetitorID(1), b.Winner())

	require.NoError(t, b.Restore(2))
	require.NoError(t, b.SetScore(SideB, 4, false))
}

func TestBoutRestoreNeedsDrop(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.SetScore(SideA, 15, false))

	assert.ErrorIs(t, b.Restore(1), ErrCompetitorNotInBout)
	scoreA := b.Score(SideA)
	assert.Equal(t, ScoreVictory, scoreA.Status())
	assert.Equal(t, 15, scoreA.Value())
}

func TestBoutClearKeepsOpponentDrop(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.Drop(1, ReasonWithdrawal))

	b.ClearCompetitor(SideB)
	scoreA := b.Score(SideA)
	assert.Equal(t, ScoreWithdrawal, scoreA.Status())
	scoreB := b.Score(SideB)
	assert.Equal(t, ScoreUnknown, scoreB.Status())
	assert.False(t, b.IsOver())

	b.SetCompetitor(SideB, 3)
	assert.True(t, b.IsOver())
	assert.Equal(t, CompetitorID(3), b.Winner())
	scoreB = b.Score(SideB)
	assert.Equal(t, ScoreOpponentOut, scoreB.Status())
}

func TestBoutBlackCard(t *testing.T) {
	b := newFencedBout(t, epee15, 1, 2)
	require.NoError(t, b.Drop(1, ReasonBlackCard))
	scoreA := b.Score(SideA)
	assert.Equal(t, ScoreBlackCard, scoreA.Status())
	assert.Equal(t, StatusBlackCard, scoreA.StatusCode())
	assert.Equal(t, CompetitorID(2), b.Winner())
}
