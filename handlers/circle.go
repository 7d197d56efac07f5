package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

type CircleHandler struct {
	circleService services.CircleService
}

func NewCircleHandler(circleService services.CircleService) *CircleHandler {
	return &CircleHandler{circleService: circleService}
}

// List godoc
// GET /api/circles
func (h *CircleHandler) List(w http.ResponseWriter, r *http.Request) {
	circles, err := h.circleService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, circles)
}

// Get godoc
// GET /api/circles/{circleId}
func (h *CircleHandler) Get(w http.ResponseWriter, r *http.Request) {
	circle, err := h.circleService.Get(r.Context(), r.PathValue("circleId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, circle)
}

// Create godoc
// POST /api/circles
// The caller becomes the representative.
func (h *CircleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CircleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	circle, err := h.circleService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, circle)
}

// Update godoc
// PUT /api/circles/{circleId}
func (h *CircleHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CircleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	circle, err := h.circleService.Update(r.Context(), user.ID, r.PathValue("circleId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, circle)
}

// Delete godoc
// DELETE /api/circles/{circleId}
func (h *CircleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.circleService.Delete(r.Context(), user.ID, r.PathValue("circleId")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "circle deleted"})
}

// Members godoc
// GET /api/circles/{circleId}/members
func (h *CircleHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.circleService.Members(r.Context(), r.PathValue("circleId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, members)
}
