package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/fencing-tableau/middleware"
	"github.com/Dosada05/fencing-tableau/models"
	"github.com/Dosada05/fencing-tableau/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthHandler(authService services.AuthService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

// Login обрабатывает POST /sessions/{sessionID}/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Role models.SessionRole `json:"role"`
		PIN  string             `json:"pin"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Role == "" || input.PIN == "" {
		badRequestResponse(w, r, errors.New("role and pin are required"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	role, err := h.authService.Login(r.Context(), sessionID, input.Role, input.PIN)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, expiresAt, err := middleware.NewToken(h.jwtSecret, sessionID, role, h.tokenTTL, time.Now())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"token":      token,
		"role":       role,
		"expires_at": expiresAt.UTC(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
