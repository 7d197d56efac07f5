package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

type MembershipHandler struct {
	membershipService services.MembershipService
}

func NewMembershipHandler(membershipService services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// Create godoc
// POST /api/circles/{circleId}/requests
// Body: { "request_type": "join" | "withdrawal" }
func (h *MembershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.membershipService.RequestMembership(r.Context(), user.ID, r.PathValue("circleId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, created)
}

// Cancel godoc
// DELETE /api/requests/{requestId}
func (h *MembershipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.membershipService.CancelRequest(r.Context(), user.ID, r.PathValue("requestId")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "request canceled"})
}

// ListPending godoc
// GET /api/circles/{circleId}/requests
func (h *MembershipHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.membershipService.ListPending(r.Context(), user.ID, r.PathValue("circleId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// Resolve godoc
// POST /api/circles/{circleId}/requests/{requestId}/resolve
// Body: { "action": "approve" | "reject" }
func (h *MembershipHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ResolveMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resolved, err := h.membershipService.ResolveRequest(r.Context(), user.ID,
		r.PathValue("circleId"), r.PathValue("requestId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, resolved)
}
