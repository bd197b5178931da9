package brackets

import (
	"fmt"
	"strconv"
	"strings"
)

type ScoreStatus int

const (
	ScoreUnknown ScoreStatus = iota
	ScoreVictory
	ScoreDefeat
	ScoreWithdrawal
	ScoreBlackCard
	ScoreOpponentOut
)

// Status codes as they appear in bout records.
const (
	StatusVictory    = "V"
	StatusDefeat     = "D"
	StatusWithdrawal = "A"
	StatusBlackCard  = "E"
)

// DropReason says why a competitor leaves a bout without fencing it out.
type DropReason string

const (
	ReasonWithdrawal DropReason = "A"
	ReasonBlackCard  DropReason = "E"
)

// ParseDropReason accepts the record codes plus "F" (forfeit), which counts as
// a withdrawal.
func ParseDropReason(code string) (DropReason, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A", "F":
		return ReasonWithdrawal, nil
	case "E":
		return ReasonBlackCard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDropReason, code)
}

// ScoreRules are the scoring parameters handed to the engine by the caller.
type ScoreRules struct {
	Max           int  `json:"max_score"`
	AllowOverflow bool `json:"allow_overflow"`
}

// Score is one side of a bout.
type Score struct {
	value       int
	status      ScoreStatus
	backup      ScoreStatus
	backupValue int
}

func (s *Score) Status() ScoreStatus { return s.status }

func (s *Score) IsKnown() bool { return s.status != ScoreUnknown }

func (s *Score) IsTheBest() bool { return s.status == ScoreVictory }

func (s *Score) IsOut() bool {
	return s.status == ScoreWithdrawal || s.status == ScoreBlackCard
}

// Value is the comparable score. Sides that were dropped hold no score.
func (s *Score) Value() int {
	switch s.status {
	case ScoreVictory, ScoreDefeat, ScoreOpponentOut:
		return s.value
	}
	return 0
}

// Set stores a numeric score. Reaching max always flags the side as winner.
func (s *Score) Set(value int, best bool, rules ScoreRules) {
	s.value = value
	s.status = ScoreDefeat
	if value == rules.Max || best {
		s.status = ScoreVictory
	}
}

func (s *Score) Clean() {
	s.status = ScoreUnknown
	s.value = 0
}

func (s *Score) drop(reason DropReason) {
	previous := s.status
	switch reason {
	case ReasonWithdrawal:
		s.status = ScoreWithdrawal
	case ReasonBlackCard:
		s.status = ScoreBlackCard
	default:
		return
	}
	if previous != ScoreWithdrawal && previous != ScoreBlackCard {
		s.backup = previous
	}
}

// Backup returns the score the side had before the drop that put it, or its
// opponent, out of the bout.
func (s *Score) Backup() (status ScoreStatus, value int, ok bool) {
	switch {
	case s.IsOut():
		return s.backup, s.value, true
	case s.status == ScoreOpponentOut:
		return s.backup, s.backupValue, true
	}
	return ScoreUnknown, 0, false
}

func (s *Score) restore() {
	s.status = s.backup
}

// synchronizeWith keeps this side in line with a dropped or restored
// opponent: facing an out opponent is an automatic win at max.
func (s *Score) synchronizeWith(other *Score, rules ScoreRules) {
	if s.IsOut() {
		return
	}
	if other.IsOut() {
		if s.status != ScoreOpponentOut {
			s.backup = s.status
			s.backupValue = s.value
		}
		s.status = ScoreOpponentOut
		s.value = rules.Max
		return
	}
	if s.status == ScoreOpponentOut {
		s.status = s.backup
		s.value = s.backupValue
	}
}

func (s *Score) IsValid(rules ScoreRules) bool {
	if s.status == ScoreUnknown || s.IsOut() || rules.AllowOverflow {
		return true
	}
	return s.value >= 0 && s.value <= rules.Max
}

func (s *Score) IsConsistentWith(other *Score, rules ScoreRules) bool {
	switch {
	case s.status == ScoreUnknown || other.status == ScoreUnknown:
		return true
	case s.status == ScoreOpponentOut || other.status == ScoreOpponentOut:
		return true
	case s.IsOut() || other.IsOut():
		return true
	case s.status == ScoreVictory && other.status == ScoreVictory:
		return false
	case s.status == ScoreDefeat && other.status == ScoreDefeat:
		return false
	case s.status == ScoreVictory && s.value < other.value:
		return false
	case other.status == ScoreVictory && other.value < s.value:
		return false
	case !rules.AllowOverflow && s.value >= rules.Max && other.value >= rules.Max:
		return false
	}
	return true
}

// StatusCode returns the record code for the side, empty when there is none
// to persist.
func (s *Score) StatusCode() string {
	return statusCode(s.status)
}

func statusCode(status ScoreStatus) string {
	switch status {
	case ScoreVictory:
		return StatusVictory
	case ScoreDefeat:
		return StatusDefeat
	case ScoreWithdrawal:
		return StatusWithdrawal
	case ScoreBlackCard:
		return StatusBlackCard
	}
	return ""
}

// Image is the text shown on a score sheet.
func (s *Score) Image(rules ScoreRules) string {
	switch s.status {
	case ScoreVictory:
		if s.value == rules.Max && !rules.AllowOverflow {
			return "V"
		}
		return "V" + strconv.Itoa(s.value)
	case ScoreDefeat:
		return strconv.Itoa(s.value)
	}
	return ""
}

// ParseScore reads score sheet input: "V" is max and a win, "V12" or "W12" is
// a win with 12 touches, a bare number is a plain score.
func ParseScore(text string, rules ScoreRules) (value int, best bool, err error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return 0, false, fmt.Errorf("%w: empty score", ErrInvalidScore)
	}

	if text[0] == 'V' || text[0] == 'W' {
		if len(text) == 1 {
			return rules.Max, true, nil
		}
		best = true
		text = text[1:]
	}

	value, convErr := strconv.Atoi(text)
	if convErr != nil || value < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidScore, text)
	}
	return value, best, nil
}
