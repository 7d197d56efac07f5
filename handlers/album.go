package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

type AlbumHandler struct {
	albumService services.AlbumService
}

func NewAlbumHandler(albumService services.AlbumService) *AlbumHandler {
	return &AlbumHandler{albumService: albumService}
}

// List godoc
// GET /api/circles/{circleId}/albums
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albumService.List(r.Context(), r.PathValue("circleId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, albums)
}

// Create godoc
// POST /api/circles/{circleId}/albums
// Body: { "title", "description", "image_urls": [...] }
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.AlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.Create(r.Context(), user.ID, r.PathValue("circleId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, album)
}

// Get godoc
// GET /api/albums/{id}
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	album, err := h.albumService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, album)
}

// Update godoc
// PUT /api/albums/{id}
func (h *AlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.AlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, album)
}

// Delete godoc
// DELETE /api/albums/{id}
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.albumService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "album deleted"})
}
