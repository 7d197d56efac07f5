package handlers

import (
	"net/http"
	"strconv"

	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

type SuggestionHandler struct {
	suggestionService services.SuggestionService
}

func NewSuggestionHandler(suggestionService services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

// Search godoc
// GET /api/suggestions?q=music&threshold=0.9
//
// Always answers 200 with a graph; failures produce {nodes:[], links:[]}.
func (h *SuggestionHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var threshold float64
	if v := r.URL.Query().Get("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "threshold must be a number between 0 and 1")
			return
		}
		threshold = parsed
	}

	pkg.JSON(w, http.StatusOK, h.suggestionService.Search(r.Context(), query, threshold))
}
