package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/fencing-tableau/middleware"
	"github.com/Dosada05/fencing-tableau/models"
	"github.com/Dosada05/fencing-tableau/services"
)

type SessionHandler struct {
	sessionService services.SessionService
	limiter        *middleware.SessionRateLimiter
}

// NewSessionHandler wires the session endpoints. limiter may be nil.
func NewSessionHandler(ss services.SessionService, limiter *middleware.SessionRateLimiter) *SessionHandler {
	return &SessionHandler{sessionService: ss, limiter: limiter}
}

// CreateHandler обрабатывает POST /sessions
func (h *SessionHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateSessionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.sessionService.CreateSession(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /sessions
func (h *SessionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if limit == 0 || limit > 100 {
		limit = 20
	}

	sessions, err := h.sessionService.ListSessions(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sessions": sessions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionService.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessionService.DeleteSession(r.Context(), sessionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if h.limiter != nil {
		h.limiter.Forget(sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterCompetitorsHandler обрабатывает POST /sessions/{sessionID}/competitors
func (h *SessionHandler) RegisterCompetitorsHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Competitors []services.CompetitorInput `json:"competitors"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.sessionService.RegisterCompetitors(r.Context(), chi.URLParam(r, "sessionID"), input.Competitors)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"competitors": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) ListCompetitorsHandler(w http.ResponseWriter, r *http.Request) {
	competitors, err := h.sessionService.ListCompetitors(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitors": competitors}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) StartEliminationHandler(w http.ResponseWriter, r *http.Request) {
	tableau, err := h.sessionService.StartElimination(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tableau": tableau}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) TableauHandler(w http.ResponseWriter, r *http.Request) {
	tableau, err := h.sessionService.GetTableau(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tableau": tableau}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) ClassificationHandler(w http.ResponseWriter, r *http.Request) {
	placements, err := h.sessionService.GetClassification(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"classification": placements}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ScoreHandler обрабатывает POST /sessions/{sessionID}/bouts/score
func (h *SessionHandler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	var input services.ScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TableSize <= 0 || input.BoutNumber <= 0 {
		badRequestResponse(w, r, errors.New("table_size and bout_number are required"))
		return
	}
	input.SessionID = chi.URLParam(r, "sessionID")

	bout, err := h.sessionService.SetScore(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bout": bout}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) DropHandler(w http.ResponseWriter, r *http.Request) {
	var input services.DropInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.changeCompetitor(w, r, input, h.sessionService.DropCompetitor)
}

func (h *SessionHandler) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	h.changeCompetitor(w, r, services.DropInput{}, h.sessionService.RestoreCompetitor)
}

func (h *SessionHandler) changeCompetitor(w http.ResponseWriter, r *http.Request, input services.DropInput, change func(context.Context, services.DropInput) error) {
	competitorID, err := getIDFromURL(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.SessionID = chi.URLParam(r, "sessionID")
	input.CompetitorID = competitorID

	if err := change(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewHandler обрабатывает GET /sessions/{sessionID}/preview?format=round_robin&rounds=2
func (h *SessionHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	format := models.Format{BracketType: r.URL.Query().Get("format")}
	if format.BracketType == "" {
		format.BracketType = models.FormatSingleElimination
	}
	if rounds := r.URL.Query().Get("rounds"); rounds != "" {
		n, err := strconv.Atoi(rounds)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid rounds query parameter"))
			return
		}
		settings, err := json.Marshal(models.RoundRobinSettings{NumberOfRounds: n})
		if err != nil {
			serverErrorResponse(w, r, err)
			return
		}
		s := string(settings)
		format.SettingsJSON = &s
	}

	matches, err := h.sessionService.PreviewBracket(r.Context(), chi.URLParam(r, "sessionID"), format)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"format": format.BracketType, "matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.sessionService.SearchBouts(r.Context(), chi.URLParam(r, "sessionID"), r.URL.Query().Get("q"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GeneratePoolHandler обрабатывает POST /sessions/{sessionID}/pools
func (h *SessionHandler) GeneratePoolHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompetitorIDs []int `json:"competitor_ids"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	schedule, err := h.sessionService.GeneratePoolSchedule(r.Context(), chi.URLParam(r, "sessionID"), input.CompetitorIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"pool": schedule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) GetPoolHandler(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.sessionService.GetPoolSchedule(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "poolID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"pool": schedule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.PublishResults(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"published": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
