package brackets

import "errors"

var (
	// Bout outcome errors. None of them is fatal: a bout carrying one of them
	// simply keeps its table from being over.
	ErrInvalidScore       = errors.New("invalid score")
	ErrInconsistentScore  = errors.New("inconsistent scores")
	ErrUndeterminedWinner = errors.New("undetermined winner")

	// Informational, the pool order is still usable.
	ErrSpacing = errors.New("pool schedule has back-to-back bouts")

	// Losers of the level are not tracked any further.
	ErrRoutingUnavailable = errors.New("no repechage group registered for this level")

	ErrBoutNotFound        = errors.New("bout not found")
	ErrBoutNotReady        = errors.New("bout opponents are not known yet")
	ErrCompetitorNotInBout = errors.New("competitor does not fence in this bout")
	ErrBoutDropped         = errors.New("bout is closed by a withdrawal or exclusion")
	ErrPoolTooSmall        = errors.New("a pool needs at least two competitors")
	ErrInvalidPoolSchedule = errors.New("pool schedule does not cover every pairing exactly once")
	ErrInvalidDropReason   = errors.New("invalid drop reason")
	ErrUnknownSet          = errors.New("unknown bracket set")
)

var ErrTableNotOver = errors.New("table is not over yet")
