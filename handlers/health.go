package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/akinalp/circles/pkg"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OnlineCounter reports the users holding a WebSocket connection.
type OnlineCounter interface {
	GetOnlineUserIDs() []string
}

type HealthResponse struct {
	Status      string `json:"status"`
	OnlineUsers int    `json:"online_users"`
}

type HealthHandler struct {
	db     Pinger
	online OnlineCounter
}

func NewHealthHandler(db Pinger, online OnlineCounter) *HealthHandler {
	return &HealthHandler{db: db, online: online}
}

// Health godoc
// GET /api/health
// 503 when the database does not answer within two seconds.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	pkg.JSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		OnlineUsers: len(h.online.GetOnlineUserIDs()),
	})
}
