package main

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/akinalp/circles/middleware"
	"github.com/akinalp/circles/repository"
	"github.com/akinalp/circles/services"
)

// initRoutes wires every endpoint into mux.
//
// Chain helpers:
//   - auth: JWT
//   - authMember: auth + active member of {circleId}
//   - authAdmin: auth + representative or vice representative of {circleId}
//
// The services repeat the membership checks; the middleware only rejects
// early so handlers stay thin.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	store *repository.Store,
	uploadDir string,
	logger *zap.Logger,
) http.Handler {
	authMw := middleware.NewAuthMiddleware(authService, store.Users)
	circleMw := middleware.NewCircleMiddleware(store.Members)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	authMember := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(circleMw.RequireMember(handler))
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(circleMw.RequireAdmin(handler))
	}

	// Public
	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)
	mux.HandleFunc("GET /api/push/vapid-key", h.Notification.VAPIDKey)

	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))

	// Users
	mux.Handle("GET /api/users/me", auth(h.User.Me))
	mux.Handle("PATCH /api/users/me", auth(h.User.UpdateMe))
	mux.Handle("GET /api/users/me/requests", auth(h.User.MyRequests))
	mux.Handle("GET /api/instructors", auth(h.User.Instructors))

	// Circles
	mux.Handle("GET /api/circles", auth(h.Circle.List))
	mux.Handle("POST /api/circles", auth(h.Circle.Create))
	mux.Handle("GET /api/circles/{circleId}", auth(h.Circle.Get))
	mux.Handle("PUT /api/circles/{circleId}", authAdmin(h.Circle.Update))
	mux.Handle("DELETE /api/circles/{circleId}", authAdmin(h.Circle.Delete))
	mux.Handle("GET /api/circles/{circleId}/members", auth(h.Circle.Members))
	mux.Handle("PATCH /api/circles/{circleId}/members/{userId}/role", authAdmin(h.Member.ChangeRole))
	mux.Handle("DELETE /api/circles/{circleId}/members/{userId}", authAdmin(h.Member.Kick))

	// Membership requests. Join requests come from non-members, so only
	// auth guards creation.
	mux.Handle("POST /api/circles/{circleId}/requests", auth(h.Membership.Create))
	mux.Handle("GET /api/circles/{circleId}/requests", authAdmin(h.Membership.ListPending))
	mux.Handle("POST /api/circles/{circleId}/requests/{requestId}/resolve", authAdmin(h.Membership.Resolve))
	mux.Handle("DELETE /api/requests/{requestId}", auth(h.Membership.Cancel))

	// Activities
	mux.Handle("GET /api/circles/{circleId}/activities", auth(h.Activity.ListByCircle))
	mux.Handle("POST /api/circles/{circleId}/activities", authAdmin(h.Activity.Create))
	mux.Handle("GET /api/activities/weekly", auth(h.Activity.Weekly))
	mux.Handle("GET /api/activities/monthly", auth(h.Activity.Monthly))
	mux.Handle("GET /api/activities/{id}", auth(h.Activity.Get))
	mux.Handle("PUT /api/activities/{id}", auth(h.Activity.Update))
	mux.Handle("DELETE /api/activities/{id}", auth(h.Activity.Delete))
	mux.Handle("POST /api/activities/{id}/participation", auth(h.Activity.ToggleParticipation))

	// Threads, announcements, comments
	mux.Handle("GET /api/circles/{circleId}/threads", authMember(h.Topic.ListThreads))
	mux.Handle("POST /api/circles/{circleId}/threads", authMember(h.Topic.CreateThread))
	mux.Handle("GET /api/circles/{circleId}/announcements", auth(h.Topic.ListAnnouncements))
	mux.Handle("POST /api/circles/{circleId}/announcements", authAdmin(h.Topic.CreateAnnouncement))
	mux.Handle("GET /api/topics/{id}", auth(h.Topic.Get))
	mux.Handle("PUT /api/topics/{id}", auth(h.Topic.Update))
	mux.Handle("DELETE /api/topics/{id}", auth(h.Topic.Delete))
	mux.Handle("POST /api/topics/{id}/comments", auth(h.Topic.CreateComment))
	mux.Handle("DELETE /api/comments/{id}", auth(h.Topic.DeleteComment))

	// Albums and welcome cards
	mux.Handle("GET /api/circles/{circleId}/albums", auth(h.Album.List))
	mux.Handle("POST /api/circles/{circleId}/albums", authAdmin(h.Album.Create))
	mux.Handle("GET /api/albums/{id}", auth(h.Album.Get))
	mux.Handle("PUT /api/albums/{id}", auth(h.Album.Update))
	mux.Handle("DELETE /api/albums/{id}", auth(h.Album.Delete))
	mux.Handle("GET /api/circles/{circleId}/welcome-cards", auth(h.WelcomeCard.List))
	mux.Handle("PUT /api/circles/{circleId}/welcome-cards", authMember(h.WelcomeCard.Replace))

	// Notifications and push
	mux.Handle("GET /api/notifications", auth(h.Notification.List))
	mux.Handle("GET /api/notifications/unread-count", auth(h.Notification.UnreadCount))
	mux.Handle("POST /api/notifications/read-all", auth(h.Notification.MarkAllRead))
	mux.Handle("POST /api/notifications/{id}/read", auth(h.Notification.MarkRead))
	mux.Handle("POST /api/push/subscriptions", auth(h.Notification.Subscribe))
	mux.Handle("DELETE /api/push/subscriptions", auth(h.Notification.Unsubscribe))

	// Suggestions and uploads
	mux.Handle("GET /api/suggestions", auth(h.Suggestion.Search))
	mux.Handle("POST /api/upload", auth(h.Upload.Upload))

	// Only flat file names are served; http.FileServer already rejects "..".
	fileServer := http.FileServer(http.Dir(uploadDir))
	mux.Handle("GET "+services.UploadURLPrefix, http.StripPrefix(services.UploadURLPrefix,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) {
				http.NotFound(w, r)
				return
			}
			fileServer.ServeHTTP(w, r)
		})))

	// Browsers cannot set headers on the upgrade, so the handler checks
	// ?token= itself.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	return middleware.RequestLogger(logger)(mux)
}
