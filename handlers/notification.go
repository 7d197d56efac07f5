package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

// NotificationHandler serves the notification inbox and web push
// subscriptions.
type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// GET /api/notifications
// Newest first, at most 100.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, notifications)
}

// UnreadCount godoc
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead godoc
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

// MarkAllRead godoc
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "all notifications marked as read"})
}

// VAPIDKey godoc
// GET /api/push/vapid-key
// Public: the browser needs it before subscribing.
func (h *NotificationHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := h.notificationService.VAPIDPublicKey()
	if key == "" {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "web push is not configured")
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"public_key": key})
}

// Subscribe godoc
// POST /api/push/subscriptions
// Body: PushSubscription.toJSON() of the browser.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.PushSubscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.notificationService.SaveSubscription(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]string{"message": "subscribed"})
}

// Unsubscribe godoc
// DELETE /api/push/subscriptions
// Body: { "endpoint": "..." }
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.DeleteSubscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.notificationService.DeleteSubscription(r.Context(), user.ID, req.Endpoint); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}
