// Package middleware holds the HTTP layers that run before a handler.
//
// A middleware is func(next http.Handler) http.Handler: it does its check
// and calls next, or writes an error and stops the chain.
//
//	Logging -> Auth -> CircleMembership -> CircleAdmin -> Handler
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/circles/handlers"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
	"github.com/akinalp/circles/services"
)

// AuthMiddleware validates the bearer access token and loads the user.
//
// Access tokens are short lived JWTs and are never stored; the refresh
// token is the server-side session. A valid token is therefore not enough
// on its own: the account it names is loaded on every request, so a
// deleted user is locked out as soon as the row is gone. Handlers read the
// loaded user with handlers.UserContextKey; its PasswordHash is cleared.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require rejects the request with 401 unless it carries
// "Authorization: Bearer <token>" for an existing user.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// The token can outlive the account.
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
