package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/handlers"
	"github.com/Dosada05/fencing-tableau/middleware"
	"github.com/Dosada05/fencing-tableau/models"
	"github.com/Dosada05/fencing-tableau/repositories"
	"github.com/Dosada05/fencing-tableau/services"
	"github.com/Dosada05/fencing-tableau/storage"
)

type memoryRepo struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (r *memoryRepo) Create(_ context.Context, s *models.Session) error {
	return r.put(s, false)
}

func (r *memoryRepo) put(s *models.Session, mustExist bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.docs[s.ID]
	if mustExist && !exists {
		return repositories.ErrSessionNotFound
	}
	if !mustExist && exists {
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
	return &s, json.Unmarshal(data, &s)
}

func (r *memoryRepo) List(ctx context.Context, limit, offset int) ([]models.SessionSummary, error) {
	return []models.SessionSummary{}, nil
}

func (r *memoryRepo) Update(_ context.Context, _ repositories.SQLExecutor, s *models.Session) error {
	return r.put(s, true)
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

const secret = "route-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestServer(t)
	return h
}

func newTestServer(t *testing.T) (http.Handler, *middleware.SessionRateLimiter) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &memoryRepo{docs: make(map[string][]byte)}

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	hub := brackets.NewHub(logger)
	go hub.Run(done)

	sessionService := services.NewSessionService(repo, storage.NewMemoryUploader("https://results.example.com"), hub, logger, services.SessionDefaults{})
	limiter := middleware.NewSessionRateLimiter(100, 100)

	router := chi.NewRouter()
	SetupRoutes(router, Options{JWTSecret: []byte(secret), AllowedOrigins: []string{"*"}, ScoreLimiter: limiter},
		handlers.NewAuthHandler(services.NewAuthService(repo, logger), secret, time.Hour),
		handlers.NewSessionHandler(sessionService, limiter),
		handlers.NewWebSocketHandler(hub, sessionService, []string{"*"}, logger),
	)
	return router, limiter
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]json.RawMessage{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func login(t *testing.T, h http.Handler, sessionID string, role models.SessionRole, pin string) string {
	t.Helper()
	status, body := call(t, h, http.MethodPost, "/sessions/"+sessionID+"/login", "", map[string]string{"role": string(role), "pin": pin})
	require.Equal(t, http.StatusOK, status)
	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))
	return token
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	status, body := call(t, h, http.MethodPost, "/sessions", "", services.CreateSessionInput{
		Title:        "Challenge Martini",
		Placements:   []int{3},
		OrganizerPIN: "2468",
		RefereePIN:   "1357",
	})
	require.Equal(t, http.StatusCreated, status)
	var summary models.SessionSummary
	require.NoError(t, json.Unmarshal(body["session"], &summary))
	return summary.ID
}

func TestSessionFlow(t *testing.T) {
	h, limiter := newTestServer(t)
	id := createSession(t, h)
	base := "/sessions/" + id

	competitors := map[string]interface{}{"competitors": []services.CompetitorInput{
		{Name: "Anna Berg", Rank: 1}, {Name: "Boris Crane", Rank: 2},
		{Name: "Clara Dunn", Rank: 3}, {Name: "Dmitri Egel", Rank: 4},
	}}

	status, _ := call(t, h, http.MethodPost, base+"/competitors", "", competitors)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, h, http.MethodPost, base+"/login", "", map[string]string{"role": "organizer", "pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, status)

	organizer := login(t, h, id, models.RoleOrganizer, "2468")
	referee := login(t, h, id, models.RoleReferee, "1357")

	status, _ = call(t, h, http.MethodPost, base+"/competitors", organizer, competitors)
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, h, http.MethodPost, base+"/elimination", referee, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, h, http.MethodGet, base+"/tableau", "", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body := call(t, h, http.MethodGet, base+"/preview?format=round_robin&rounds=2", "", nil)
	require.Equal(t, http.StatusOK, status)
	var matches []brackets.BracketMatch
	require.NoError(t, json.Unmarshal(body["matches"], &matches))
	assert.Len(t, matches, 12)

	status, _ = call(t, h, http.MethodPost, base+"/elimination", organizer, nil)
	require.Equal(t, http.StatusCreated, status)

	score := services.ScoreInput{TableSize: 4, BoutNumber: 1, ScoreA: "V", ScoreB: "3"}
	status, body = call(t, h, http.MethodPost, base+"/bouts/score", referee, score)
	require.Equal(t, http.StatusOK, status)
	var bout brackets.BoutView
	require.NoError(t, json.Unmarshal(body["bout"], &bout))
	assert.True(t, bout.IsOver)

	score.ScoreB = "x"
	status, _ = call(t, h, http.MethodPost, base+"/bouts/score", referee, score)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, h, http.MethodPost, base+"/bouts/score", referee, map[string]int{"table_size": 4})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, h, http.MethodGet, base+"/tableau", "", nil)
	require.Equal(t, http.StatusOK, status)
	var tableau []brackets.BracketSetView
	require.NoError(t, json.Unmarshal(body["tableau"], &tableau))
	require.Len(t, tableau, 2)

	status, body = call(t, h, http.MethodGet, base+"/bouts/search?q=anna", "", nil)
	require.Equal(t, http.StatusOK, status)
	var results []services.BoutSearchResult
	require.NoError(t, json.Unmarshal(body["results"], &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "Anna Berg", results[0].Competitor.Name)

	status, _ = call(t, h, http.MethodPost, base+"/competitors/4/drop", organizer, map[string]string{"reason": "A"})
	assert.Equal(t, http.StatusNoContent, status)
	score.ScoreB = "5"
	status, _ = call(t, h, http.MethodPost, base+"/bouts/score", referee, score)
	assert.Equal(t, http.StatusConflict, status, "a withdrawal closes the bout")
	status, _ = call(t, h, http.MethodPost, base+"/competitors/abc/drop", organizer, map[string]string{"reason": "A"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, h, http.MethodPost, base+"/pools", organizer, nil)
	require.Equal(t, http.StatusCreated, status)
	var pool services.PoolSchedule
	require.NoError(t, json.Unmarshal(body["pool"], &pool))
	assert.Len(t, pool.Bouts, 6)

	status, _ = call(t, h, http.MethodGet, base+"/pools/"+pool.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = call(t, h, http.MethodPost, base+"/publish", organizer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body["published"]), "classification.json")

	other := createSession(t, h)
	status, _ = call(t, h, http.MethodDelete, "/sessions/"+other, organizer, nil)
	assert.Equal(t, http.StatusForbidden, status, "token of another session")

	assert.Equal(t, 1, limiter.Size())
	status, _ = call(t, h, http.MethodDelete, base, organizer, nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, limiter.Size(), "deleting a session drops its score bucket")
	status, _ = call(t, h, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestValidation(t *testing.T) {
	h := newTestRouter(t)

	status, _ := call(t, h, http.MethodPost, "/sessions", "", map[string]string{"title": "Open", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, h, http.MethodPost, "/sessions", "", map[string]string{"title": "", "organizer_pin": "2468"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, h, http.MethodGet, "/sessions?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSwaggerDocument(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fencing Tableau API")
}

func TestWebSocketSendsTableau(t *testing.T) {
	h := newTestRouter(t)
	id := createSession(t, h)
	organizer := login(t, h, id, models.RoleOrganizer, "2468")
	status, _ := call(t, h, http.MethodPost, "/sessions/"+id+"/competitors", organizer, map[string]interface{}{
		"competitors": []services.CompetitorInput{{Name: "Anna Berg"}, {Name: "Boris Crane"}},
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = call(t, h, http.MethodPost, "/sessions/"+id+"/elimination", organizer, nil)
	require.Equal(t, http.StatusCreated, status)

	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type   string `json:"type"`
		RoomID string `json:"room_id"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, brackets.EventTableauUpdated, msg.Type)
	assert.Equal(t, id, msg.RoomID)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/sessions/missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
