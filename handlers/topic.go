package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/ratelimit"
	"github.com/akinalp/circles/services"
)

// TopicHandler serves threads, announcements and comments. New topics and
// comments share one per-user posting limiter.
type TopicHandler struct {
	topicService services.TopicService
	postLimiter  *ratelimit.PostRateLimiter
}

// NewTopicHandler disables rate limiting when postLimiter is nil.
func NewTopicHandler(topicService services.TopicService, postLimiter *ratelimit.PostRateLimiter) *TopicHandler {
	return &TopicHandler{
		topicService: topicService,
		postLimiter:  postLimiter,
	}
}

// CreateThread godoc
// POST /api/circles/{circleId}/threads
func (h *TopicHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.TopicThread)
}

// CreateAnnouncement godoc
// POST /api/circles/{circleId}/announcements
// Body: { "title", "content", "is_important" }
func (h *TopicHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.TopicAnnouncement)
}

func (h *TopicHandler) create(w http.ResponseWriter, r *http.Request, t models.TopicType) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.allowPost(w, user.ID) {
		return
	}

	var req models.TopicRequest
	if !decodeBody(w, r, &req) {
		return
	}

	topic, err := h.topicService.Create(r.Context(), user.ID, r.PathValue("circleId"), t, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, topic)
}

// ListThreads godoc
// GET /api/circles/{circleId}/threads
func (h *TopicHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.TopicThread)
}

// ListAnnouncements godoc
// GET /api/circles/{circleId}/announcements
// Important announcements come first.
func (h *TopicHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.TopicAnnouncement)
}

func (h *TopicHandler) list(w http.ResponseWriter, r *http.Request, t models.TopicType) {
	topics, err := h.topicService.List(r.Context(), r.PathValue("circleId"), t)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, topics)
}

// Get godoc
// GET /api/topics/{id}
func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	topic, err := h.topicService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, topic)
}

// Update godoc
// PUT /api/topics/{id}
func (h *TopicHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.TopicRequest
	if !decodeBody(w, r, &req) {
		return
	}

	topic, err := h.topicService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, topic)
}

// Delete godoc
// DELETE /api/topics/{id}
func (h *TopicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.topicService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "topic deleted"})
}

// CreateComment godoc
// POST /api/topics/{id}/comments
// Body: { "content": "..." }
func (h *TopicHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.allowPost(w, user.ID) {
		return
	}

	var req models.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.topicService.CreateComment(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, comment)
}

// DeleteComment godoc
// DELETE /api/comments/{id}
func (h *TopicHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.topicService.DeleteComment(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}

// allowPost writes 429 with Retry-After when the user is in cooldown.
func (h *TopicHandler) allowPost(w http.ResponseWriter, userID string) bool {
	if h.postLimiter == nil || h.postLimiter.Allow(userID) {
		return true
	}
	tooManyRequests(w, h.postLimiter.CooldownSeconds(userID), "posting too fast, please wait")
	return false
}
