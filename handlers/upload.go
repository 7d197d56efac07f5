package handlers

import (
	"fmt"
	"net/http"

	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

// UploadHandler accepts image uploads. The returned URL is then placed
// into circle, album, welcome card or profile requests by the client.
type UploadHandler struct {
	uploadService services.UploadService
	maxSize       int64
}

func NewUploadHandler(uploadService services.UploadService, maxSize int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxSize:       maxSize,
	}
}

// Upload godoc
// POST /api/upload
// Content-Type: multipart/form-data, field "file"
// Response: { "url": "/api/uploads/...", "filename", "size", "mime_type" }
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	// Multipart overhead on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		pkg.Error(w, fmt.Errorf("%w: failed to parse multipart form", pkg.ErrBadRequest))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkg.Error(w, fmt.Errorf("%w: file field is required", pkg.ErrBadRequest))
		return
	}
	defer file.Close()

	uploaded, err := h.uploadService.Upload(file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, uploaded)
}
