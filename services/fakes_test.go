package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/fencing-tableau/models"
	"github.com/Dosada05/fencing-tableau/repositories"
	"github.com/Dosada05/fencing-tableau/storage"
)

// memoryRepo stores sessions as JSON so every load gets a fresh copy, the
// way the jsonb column does.
type memoryRepo struct {
	mu        sync.Mutex
	docs      map[string][]byte
	updateErr error
	updates   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{docs: make(map[string][]byte)}
}

func (r *memoryRepo) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[s.ID]; ok {
		return repositories.ErrSessionConflict
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.docs[s.ID] = data
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *memoryRepo) List(ctx context.Context, limit, offset int) ([]models.SessionSummary, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)

	out := []models.SessionSummary{}
	for i, id := range ids {
		if i < offset || len(out) == limit {
			continue
		}
		s, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s.Summary())
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, _ repositories.SQLExecutor, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.docs[s.ID]; !ok {
		return repositories.ErrSessionNotFound
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.docs[s.ID] = data
	r.updates++
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repositories.ErrSessionNotFound
	}
	delete(r.docs, id)
	return nil
}

type event struct {
	room      string
	eventType string
	payload   interface{}
}

type recordingHub struct {
	mu     sync.Mutex
	events []event
}

func (h *recordingHub) BroadcastToRoom(roomID, eventType string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event{room: roomID, eventType: eventType, payload: payload})
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.eventType
	}
	return out
}

type failingUploader struct{}

var errBucketDown = errors.New("bucket unavailable")

func (failingUploader) Upload(context.Context, string, string, io.Reader) (*storage.UploadResult, error) {
	return nil, errBucketDown
}

func (failingUploader) Delete(context.Context, string) error { return errBucketDown }

func (failingUploader) GetPublicURL(key string) string { return "" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
