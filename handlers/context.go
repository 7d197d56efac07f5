package handlers

import (
	"net/http"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

// contextKey is a private type so context values set here cannot collide
// with other packages' string keys.
type contextKey string

// UserContextKey carries the authenticated *models.User. Set by
// middleware.AuthMiddleware.
const UserContextKey contextKey = "user"

// CircleMemberContextKey carries the caller's *models.CircleMember for the
// {circleId} in the path. Set by middleware.CircleMiddleware.
const CircleMemberContextKey contextKey = "circle_member"

// currentUser writes 401 and returns false when no user is in the context.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}
