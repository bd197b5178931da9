package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/models"
)

func generateRandomToken(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	randomBytes := make([]byte, length)
	_, err := rand.Read(randomBytes)
	if err != nil {
		for i := range b {
			b[i] = charset[int(time.Now().UnixNano()+int64(i))%len(charset)]
		}
		return string(b)
	}
	for i, rb := range randomBytes {
		b[i] = charset[int(rb)%len(charset)]
	}
	return string(b)
}

// mapEngineError turns engine errors a caller can fix into service errors.
// Anything else is returned as is.
func mapEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, brackets.ErrBoutNotFound):
		return fmt.Errorf("%w: %v", ErrBoutNotFound, err)
	case errors.Is(err, brackets.ErrBoutNotReady):
		return fmt.Errorf("%w: %v", ErrBoutNotReady, err)
	case errors.Is(err, brackets.ErrBoutDropped):
		return fmt.Errorf("%w: %v", ErrBoutDropped, err)
	case errors.Is(err, brackets.ErrCompetitorNotInBout):
		return fmt.Errorf("%w: %v", ErrNotInBout, err)
	case errors.Is(err, brackets.ErrInvalidScore),
		errors.Is(err, brackets.ErrInvalidDropReason),
		errors.Is(err, brackets.ErrPoolTooSmall):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

func attendeesOf(competitors []models.Competitor) []brackets.Attendee {
	out := make([]brackets.Attendee, len(competitors))
	for i, c := range competitors {
		out[i] = brackets.Attendee{Competitor: brackets.CompetitorID(c.ID), Rank: c.Rank}
	}
	return out
}

// withCompetitors attaches a copy of each placed competitor.
func withCompetitors(session *models.Session, placements []models.Placement) []models.Placement {
	for i := range placements {
		if c, ok := session.Competitor(placements[i].CompetitorID); ok {
			cp := *c
			placements[i].Competitor = &cp
		}
	}
	return placements
}
