package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/akinalp/circles/handlers"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
)

// CircleMiddleware guards circle-scoped routes. It reads {circleId} from the
// path and puts the caller's active membership in the context. It runs
// after AuthMiddleware.
//
// Services repeat the same checks inside their transactions; this layer
// only rejects early.
type CircleMiddleware struct {
	memberRepo repository.MemberRepository
}

func NewCircleMiddleware(memberRepo repository.MemberRepository) *CircleMiddleware {
	return &CircleMiddleware{memberRepo: memberRepo}
}

// RequireMember lets active members of the circle through.
func (m *CircleMiddleware) RequireMember(next http.Handler) http.Handler {
	return m.require(false, next)
}

// RequireAdmin lets the representative and vice representatives through.
func (m *CircleMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.require(true, next)
}

func (m *CircleMiddleware) require(admin bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		// Go 1.22+ PathValue reads {circleId} from the route pattern.
		circleID := r.PathValue("circleId")
		if circleID == "" {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "circleId is required")
			return
		}

		member, err := m.memberRepo.GetActive(r.Context(), circleID, user.ID)
		if errors.Is(err, pkg.ErrNotFound) {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "you are not a member of this circle")
			return
		}
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusInternalServerError, "failed to check circle membership")
			return
		}

		if admin && !member.Role.IsAdmin() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "circle admin role required")
			return
		}

		ctx := context.WithValue(r.Context(), handlers.CircleMemberContextKey, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
