package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/fencing-tableau/storage"
)

type PublishResult struct {
	SessionID   string            `json:"session_id"`
	Documents   map[string]string `json:"documents"`
	PublishedAt time.Time         `json:"published_at"`
}

// PublishResults uploads the current tableau and classification, plus the
// stored pool orders, as JSON documents next to each other.
func (s *sessionService) PublishResults(ctx context.Context, sessionID string) (*PublishResult, error) {
	if s.uploader == nil {
		return nil, ErrPublishingOff
	}

	docs := make(map[string][]byte)
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		if ls.router == nil {
			return fmt.Errorf("%w: elimination has not started", ErrStageConflict)
		}
		payloads := map[string]interface{}{
			"session.json":        ls.session.Summary(),
			"tableau.json":        ls.router.View(),
			"classification.json": withCompetitors(ls.session, ls.router.Classification()),
		}
		if len(ls.session.Pools) > 0 {
			payloads["pools.json"] = ls.session.Pools
		}
		for name, payload := range payloads {
			body, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", name, err)
			}
			docs[name] = body
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &PublishResult{
		SessionID:   sessionID,
		Documents:   make(map[string]string, len(docs)),
		PublishedAt: s.now().UTC(),
	}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for name, body := range docs {
		g.Go(func() error {
			uploaded, err := s.uploader.Upload(gCtx, storage.ResultKey(sessionID, name), "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			result.Documents[name] = uploaded.Location
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "publishing failed", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrPublishing, err)
	}

	s.logger.InfoContext(ctx, "results published", slog.String("session_id", sessionID), slog.Int("documents", len(docs)))
	return result, nil
}
