package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

type WelcomeCardHandler struct {
	welcomeCardService services.WelcomeCardService
}

func NewWelcomeCardHandler(welcomeCardService services.WelcomeCardService) *WelcomeCardHandler {
	return &WelcomeCardHandler{welcomeCardService: welcomeCardService}
}

// List godoc
// GET /api/circles/{circleId}/welcome-cards
func (h *WelcomeCardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.welcomeCardService.Get(r.Context(), r.PathValue("circleId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, cards)
}

// Replace godoc
// PUT /api/circles/{circleId}/welcome-cards
// Body: { "cards": [ { "front_title", "front_image", "back_title", "back_description" } ] }
func (h *WelcomeCardHandler) Replace(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ReplaceWelcomeCardsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cards, err := h.welcomeCardService.Replace(r.Context(), user.ID, r.PathValue("circleId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, cards)
}
