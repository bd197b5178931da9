package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/models"
)

// PoolBout is one scheduled pool bout with its competitors resolved.
type PoolBout struct {
	Order        int               `json:"order"`
	CompetitorA  models.Competitor `json:"competitor_a"`
	CompetitorB  models.Competitor `json:"competitor_b"`
	ASpacing     int               `json:"a_spacing"`
	BSpacing     int               `json:"b_spacing"`
	SpacingError bool              `json:"spacing_error"`
}

type PoolSchedule struct {
	ID            string     `json:"id"`
	Bouts         []PoolBout `json:"bouts"`
	SpacingErrors int        `json:"spacing_errors"`
	Warning       string     `json:"warning,omitempty"`
}

// GeneratePoolSchedule orders the bouts of a pool and stores the order with
// the session. Without ids the whole roster forms the pool.
func (s *sessionService) GeneratePoolSchedule(ctx context.Context, sessionID string, competitorIDs []int) (*PoolSchedule, error) {
	var schedule *PoolSchedule
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		ids := competitorIDs
		if len(ids) == 0 {
			for _, c := range ls.session.Competitors {
				ids = append(ids, c.ID)
			}
		}

		pool := make([]brackets.CompetitorID, 0, len(ids))
		for i, id := range ids {
			if _, ok := ls.session.Competitor(id); !ok {
				return fmt.Errorf("%w: %d", ErrCompetitorNotFound, id)
			}
			if slices.Contains(ids[:i], id) {
				return fmt.Errorf("%w: %d", ErrDuplicateCompetitor, id)
			}
			pool = append(pool, brackets.CompetitorID(id))
		}

		ps, err := brackets.NewPoolScheduler(pool)
		if err != nil {
			return mapEngineError(err)
		}

		var warning string
		if _, err := ps.Schedule(); err != nil {
			if !errors.Is(err, brackets.ErrSpacing) {
				return err
			}
			warning = err.Error()
		}

		record := ps.Record(fmt.Sprintf("pool-%d", ls.ids.Next()))
		ls.session.Pools = append(ls.session.Pools, record)
		if err := s.persist(ctx, ls); err != nil {
			return err
		}

		schedule = poolSchedule(ls.session, record.ID, ps)
		schedule.Warning = warning
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "pool schedule generated",
		slog.String("session_id", sessionID),
		slog.String("pool_id", schedule.ID),
		slog.Int("bouts", len(schedule.Bouts)),
		slog.Int("spacing_errors", schedule.SpacingErrors),
	)
	return schedule, nil
}

// GetPoolSchedule reloads a stored order and audits it again.
func (s *sessionService) GetPoolSchedule(ctx context.Context, sessionID, poolID string) (*PoolSchedule, error) {
	var schedule *PoolSchedule
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		for _, record := range ls.session.Pools {
			if record.ID != poolID {
				continue
			}
			ps, err := brackets.LoadPoolSchedule(record)
			if err != nil {
				return fmt.Errorf("pool %s of session %s: %w", poolID, sessionID, err)
			}
			schedule = poolSchedule(ls.session, poolID, ps)
			return nil
		}
		return fmt.Errorf("%w: pool %s", ErrNotFound, poolID)
	})
	return schedule, err
}

func poolSchedule(session *models.Session, id string, ps *brackets.PoolScheduler) *PoolSchedule {
	out := &PoolSchedule{ID: id, SpacingErrors: ps.SpacingErrors(), Bouts: []PoolBout{}}
	for i, p := range ps.Pairs() {
		a, b := ps.Competitors(p)
		bout := PoolBout{
			Order:        i + 1,
			ASpacing:     p.ASpacing,
			BSpacing:     p.BSpacing,
			SpacingError: p.HasSpacingError(),
		}
		if c, ok := session.Competitor(int(a)); ok {
			bout.CompetitorA = *c
		}
		if c, ok := session.Competitor(int(b)); ok {
			bout.CompetitorB = *c
		}
		out.Bouts = append(out.Bouts, bout)
	}
	return out
}

// PreviewBracket flattens the roster into the matches of a format without
// touching the session.
func (s *sessionService) PreviewBracket(ctx context.Context, sessionID string, format models.Format) ([]*brackets.BracketMatch, error) {
	generator, ok := brackets.Generators()[format.BracketType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format.BracketType)
	}

	var params brackets.GenerateBracketParams
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		params = brackets.GenerateBracketParams{
			SessionID:   sessionID,
			Format:      &format,
			Competitors: slices.Clone(ls.session.Competitors),
			Rules:       ls.rules(),
			Seed:        ls.session.Seed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(params.Competitors) < 2 {
		return nil, ErrNotEnoughCompetitors
	}

	matches, err := generator.GenerateBracket(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	s.logger.DebugContext(ctx, "bracket preview generated",
		slog.String("session_id", sessionID),
		slog.String("generator", generator.GetName()),
		slog.Int("matches", len(matches)),
	)
	return matches, nil
}
