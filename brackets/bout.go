package brackets

import (
	"fmt"
	"time"
)

// CompetitorID references a competitor owned by the roster. Zero means nobody.
type CompetitorID int

const NoCompetitor CompetitorID = 0

type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) Other() Side { return 1 - s }

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

type boutSide struct {
	competitor CompetitorID
	known      bool
	score      Score
}

// Bout is a single two-sided contest. A side is unknown until the bracket
// feeds it; a known side without a competitor is a bye.
type Bout struct {
	Number    int
	NetID     int
	BatchID   int
	Piste     int
	StartTime time.Time
	Duration  time.Duration
	Referees  []CompetitorID

	rules ScoreRules
	sides [2]boutSide
}

func NewBout(number int, rules ScoreRules) *Bout {
	return &Bout{Number: number, rules: rules}
}

func (b *Bout) Rules() ScoreRules { return b.rules }

// Competitor returns who fences on the side and whether the side is settled.
func (b *Bout) Competitor(side Side) (CompetitorID, bool) {
	return b.sides[side].competitor, b.sides[side].known
}

func (b *Bout) Score(side Side) Score {
	return b.sides[side].score
}

// SideOf finds the side a competitor fences on.
func (b *Bout) SideOf(competitor CompetitorID) (Side, bool) {
	if competitor == NoCompetitor {
		return SideA, false
	}
	for _, side := range []Side{SideA, SideB} {
		if b.sides[side].known && b.sides[side].competitor == competitor {
			return side, true
		}
	}
	return SideA, false
}

// SetCompetitor settles a side. Passing NoCompetitor makes the side a bye and
// hands the other side the win.
func (b *Bout) SetCompetitor(side Side, competitor CompetitorID) {
	s := &b.sides[side]
	if s.known && s.competitor != competitor {
		b.cleanScores(side)
	}

	s.competitor = competitor
	s.known = true
	b.applyBye()
	b.synchronize()
}

// applyBye gives the present side of an exempt bout its automatic win.
func (b *Bout) applyBye() {
	for _, side := range []Side{SideA, SideB} {
		if b.sides[side].known && b.sides[side].competitor == NoCompetitor {
			b.sides[side].score.Set(0, false, b.rules)
			if present := &b.sides[side.Other()].score; !present.IsOut() {
				present.Set(0, true, b.rules)
			}
			return
		}
	}
}

// ClearCompetitor returns the side to unknown and wipes the scores. A drop
// recorded on the other side stays.
func (b *Bout) ClearCompetitor(side Side) {
	b.sides[side].competitor = NoCompetitor
	b.sides[side].known = false
	b.cleanScores(side)
}

// cleanScores wipes the score of side, and the other side's score unless its
// competitor was dropped.
func (b *Bout) cleanScores(side Side) {
	b.sides[side].score.Clean()
	if other := &b.sides[side.Other()].score; !other.IsOut() {
		other.Clean()
	}
}

// synchronize puts the opponent of a dropped side on its automatic win.
func (b *Bout) synchronize() {
	for _, side := range []Side{SideA, SideB} {
		if b.sides[side].score.IsOut() && b.sides[side.Other()].known {
			b.sides[side.Other()].score.synchronizeWith(&b.sides[side].score, b.rules)
		}
	}
}

// SetScore records the touches of one side.
func (b *Bout) SetScore(side Side, value int, best bool) error {
	if !b.HasOpponents() {
		return ErrBoutNotReady
	}
	if b.IsDropped() {
		return ErrBoutDropped
	}
	b.sides[side].score.Set(value, best, b.rules)
	return nil
}

// Drop takes a competitor out of the bout; the opponent wins at max.
func (b *Bout) Drop(competitor CompetitorID, reason DropReason) error {
	side, ok := b.SideOf(competitor)
	if !ok {
		return ErrCompetitorNotInBout
	}
	if reason != ReasonWithdrawal && reason != ReasonBlackCard {
		return fmt.Errorf("%w: %q", ErrInvalidDropReason, reason)
	}
	b.sides[side].score.drop(reason)
	b.sides[side.Other()].score.synchronizeWith(&b.sides[side].score, b.rules)
	return nil
}

func (b *Bout) Restore(competitor CompetitorID) error {
	side, ok := b.SideOf(competitor)
	if !ok || !b.sides[side].score.IsOut() {
		return ErrCompetitorNotInBout
	}
	b.sides[side].score.restore()
	b.sides[side.Other()].score.synchronizeWith(&b.sides[side].score, b.rules)
	if other := &b.sides[side.Other()].score; other.IsOut() {
		b.sides[side].score.synchronizeWith(other, b.rules)
	}
	return nil
}

// HasOpponents reports whether two real competitors face each other.
func (b *Bout) HasOpponents() bool {
	for _, s := range b.sides {
		if !s.known || s.competitor == NoCompetitor {
			return false
		}
	}
	return true
}

func (b *Bout) IsExempt() bool {
	for _, s := range b.sides {
		if s.known && s.competitor == NoCompetitor {
			return true
		}
	}
	return false
}

func (b *Bout) IsDropped() bool {
	return b.sides[SideA].score.IsOut() || b.sides[SideB].score.IsOut()
}

func (b *Bout) IsStarted() bool {
	for _, s := range b.sides {
		if s.known && s.competitor != NoCompetitor && s.score.IsKnown() {
			return true
		}
	}
	return false
}

func (b *Bout) HasError() bool {
	return b.Err() != nil
}

// Err describes why the bout cannot be resolved, nil when it can or when it is
// simply not fenced yet.
func (b *Bout) Err() error {
	a, bs := &b.sides[SideA].score, &b.sides[SideB].score

	if !a.IsValid(b.rules) || !bs.IsValid(b.rules) {
		return ErrInvalidScore
	}
	if !a.IsConsistentWith(bs, b.rules) {
		if a.Status() == ScoreDefeat && bs.Status() == ScoreDefeat {
			return fmt.Errorf("%w: %w", ErrInconsistentScore, ErrUndeterminedWinner)
		}
		return ErrInconsistentScore
	}
	return nil
}

func (b *Bout) IsOver() bool {
	if b.IsExempt() {
		return b.sides[SideA].known && b.sides[SideB].known
	}
	for _, s := range b.sides {
		if !s.known || !s.score.IsKnown() {
			return false
		}
	}
	return !b.HasError()
}

// Winner resolves the bout. NoCompetitor means nobody advances, either because
// the bout is not decided or because both sides are empty.
func (b *Bout) Winner() CompetitorID {
	for _, side := range []Side{SideA, SideB} {
		if b.sides[side].known && b.sides[side].competitor == NoCompetitor {
			return b.sides[side.Other()].competitor
		}
	}

	a, bs := &b.sides[SideA].score, &b.sides[SideB].score
	if !a.IsKnown() || !bs.IsKnown() {
		return NoCompetitor
	}

	if b.IsDropped() {
		for _, side := range []Side{SideA, SideB} {
			if b.sides[side].score.IsOut() && !b.sides[side.Other()].score.IsOut() {
				return b.sides[side.Other()].competitor
			}
		}
		return NoCompetitor
	}

	if b.HasError() {
		return NoCompetitor
	}

	switch {
	case a.Value() > bs.Value():
		return b.sides[SideA].competitor
	case a.Value() < bs.Value():
		return b.sides[SideB].competitor
	case a.IsTheBest():
		return b.sides[SideA].competitor
	case bs.IsTheBest():
		return b.sides[SideB].competitor
	}
	return NoCompetitor
}

func (b *Bout) Loser() CompetitorID {
	winner := b.Winner()
	if winner == NoCompetitor {
		return NoCompetitor
	}
	if b.sides[SideA].competitor == winner {
		return b.sides[SideB].competitor
	}
	return b.sides[SideA].competitor
}
