package main

import (
	"github.com/akinalp/circles/config"
	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/handlers"
	"github.com/akinalp/circles/ws"
)

// Handlers holds every HTTP handler.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Circle       *handlers.CircleHandler
	Member       *handlers.MemberHandler
	Membership   *handlers.MembershipHandler
	Activity     *handlers.ActivityHandler
	Topic        *handlers.TopicHandler
	Album        *handlers.AlbumHandler
	WelcomeCard  *handlers.WelcomeCardHandler
	Notification *handlers.NotificationHandler
	Suggestion   *handlers.SuggestionHandler
	Upload       *handlers.UploadHandler
	Health       *handlers.HealthHandler
	WS           *ws.Handler
}

func initHandlers(
	svcs *Services,
	limiters *RateLimiters,
	hub *ws.Hub,
	db *database.DB,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		User:         handlers.NewUserHandler(svcs.User, svcs.Membership),
		Circle:       handlers.NewCircleHandler(svcs.Circle),
		Member:       handlers.NewMemberHandler(svcs.Member),
		Membership:   handlers.NewMembershipHandler(svcs.Membership),
		Activity:     handlers.NewActivityHandler(svcs.Activity, cfg.App.Location()),
		Topic:        handlers.NewTopicHandler(svcs.Topic, limiters.Post),
		Album:        handlers.NewAlbumHandler(svcs.Album),
		WelcomeCard:  handlers.NewWelcomeCardHandler(svcs.WelcomeCard),
		Notification: handlers.NewNotificationHandler(svcs.Notification),
		Suggestion:   handlers.NewSuggestionHandler(svcs.Suggestion),
		Upload:       handlers.NewUploadHandler(svcs.Upload, cfg.Upload.MaxSize),
		Health:       handlers.NewHealthHandler(db.Conn, hub),
		WS:           ws.NewHandler(hub, svcs.Auth, cfg.Server.AllowedOrigins),
	}
}
