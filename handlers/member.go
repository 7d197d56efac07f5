package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

// MemberHandler serves role changes and kicks. The hierarchy rules live in
// MemberService; the actor is the context user, the target the {userId}
// path value.
type MemberHandler struct {
	memberService services.MemberService
}

func NewMemberHandler(memberService services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// ChangeRole godoc
// PATCH /api/circles/{circleId}/members/{userId}/role
// Body: { "role_id": 0|1|2 }
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ChangeRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.memberService.ChangeMemberRole(r.Context(), actor.ID,
		r.PathValue("circleId"), r.PathValue("userId"), models.Role(*req.RoleID))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, member)
}

// Kick godoc
// DELETE /api/circles/{circleId}/members/{userId}
func (h *MemberHandler) Kick(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.memberService.Kick(r.Context(), actor.ID, r.PathValue("circleId"), r.PathValue("userId")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}
