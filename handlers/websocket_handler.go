package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/brianbrunner/just2guys/brackets"
	"github.com/brianbrunner/just2guys/services"
	"github.com/gorilla/websocket"
)

// MessageBracketSnapshot carries the bracket as it stands when a client joins.
const MessageBracketSnapshot = "BRACKET_SNAPSHOT"

type WebSocketHandler struct {
	hub           *brackets.Hub
	leagueService services.LeagueService
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" allows any
// origin.
func NewWebSocketHandler(hub *brackets.Hub, ls services.LeagueService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:           hub,
		leagueService: ls,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeWs subscribes the client to /ws/leagues/{leagueKey}. The current
// bracket is sent first, then every update the league publishes.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	leagueKey, err := urlParam(r, "leagueKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.leagueService.Bracket(r.Context(), leagueKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("league", leagueKey), slog.Any("error", err))
		return
	}

	room := brackets.LeagueRoom(leagueKey)
	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}

	snapshot, err := json.Marshal(brackets.WebSocketMessage{Type: MessageBracketSnapshot, Payload: view, RoomID: room})
	if err == nil {
		client.Send <- snapshot
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client joined", slog.String("room", room))
}
