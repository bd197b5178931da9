package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/services"
)

type WebSocketHandler struct {
	hub            *brackets.Hub
	sessionService services.SessionService
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler accepts connections from the allowed origins; "*" or an
// empty list allows any origin.
func NewWebSocketHandler(hub *brackets.Hub, ss services.SessionService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		hub:            hub,
		sessionService: ss,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs обрабатывает WebSocket запросы для конкретной сессии.
// Клиент подключается к /ws/sessions/{sessionID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.sessionService.GetSession(r.Context(), sessionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var snapshot []byte
	if tableau, err := h.sessionService.GetTableau(r.Context(), sessionID); err == nil {
		snapshot, err = json.Marshal(brackets.WebSocketMessage{Type: brackets.EventTableauUpdated, Payload: tableau, RoomID: sessionID})
		if err != nil {
			h.logger.Error("failed to encode tableau snapshot", slog.String("session_id", sessionID), slog.Any("error", err))
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.Warn("websocket upgrade failed", slog.String("session_id", sessionID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: sessionID,
	}

	// Текущее состояние сетки отправляется сразу после подключения.
	if snapshot != nil {
		client.Send <- snapshot
	}

	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client connected", slog.String("session_id", sessionID))
}
