package ws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/circles/models"
)

// TokenValidator checks the access token passed in the query string.
// Browsers cannot set headers on a WebSocket handshake.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler accepts any origin when allowedOrigins is empty.
func NewHandler(hub *Hub, tokenValidator TokenValidator, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleConnection godoc
// GET /ws?token=<access_token>
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Debug("upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufferSize),
	}

	// The ready event is queued before registration so it is always the
	// first frame on the connection.
	ready := ReadyData{UserID: claims.UserID}
	var payload any = ready
	if h.hub.readyBuilder != nil {
		if data, err := h.hub.readyBuilder(r.Context(), claims.UserID); err != nil {
			h.hub.log.Warn("failed to build ready payload", zap.String("user_id", claims.UserID), zap.Error(err))
		} else {
			payload = data
		}
	}
	if data, ok := h.hub.encode(Event{Op: OpReady, Data: payload}); ok {
		client.send <- data
	}

	if !h.hub.registerClient(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
