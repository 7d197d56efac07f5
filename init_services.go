package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circles/config"
	"github.com/akinalp/circles/embedding"
	"github.com/akinalp/circles/pkg/crypto"
	"github.com/akinalp/circles/pkg/email"
	"github.com/akinalp/circles/pkg/ratelimit"
	"github.com/akinalp/circles/pkg/webpush"
	"github.com/akinalp/circles/repository"
	"github.com/akinalp/circles/services"
	"github.com/akinalp/circles/ws"
)

// Services holds every service instance.
type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Notification services.NotificationService
	Suggestion   services.SuggestionService
	Circle       services.CircleService
	Member       services.MemberService
	Membership   services.MembershipService
	Activity     services.ActivityService
	Topic        services.TopicService
	Album        services.AlbumService
	WelcomeCard  services.WelcomeCardService
	Upload       services.UploadService
}

// RateLimiters holds the limiters whose cleanup goroutines must be stopped
// on shutdown.
type RateLimiters struct {
	Login *ratelimit.LoginRateLimiter
	Post  *ratelimit.PostRateLimiter
}

func (rl *RateLimiters) Stop() {
	rl.Login.Stop()
	rl.Post.Stop()
}

// initServices builds the services. Notification comes first because the
// membership, activity and topic services fan out through it; suggestion
// comes before circle because circle writes invalidate its snapshot.
func initServices(
	store *repository.Store,
	hub ws.EventPublisher,
	embedder embedding.Embedder,
	cfg *config.Config,
	logger *zap.Logger,
) (*Services, *RateLimiters, error) {
	lang := cfg.App.DefaultLanguage

	var emailSender email.EmailSender
	if cfg.Email.Enabled() {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		logger.Info("email enabled", zap.String("from", cfg.Email.FromEmail))
	} else {
		logger.Warn("email disabled, password reset and membership mails will not be sent")
	}

	var pusher webpush.Sender
	if cfg.WebPush.Enabled() {
		pusher = webpush.NewSender(cfg.WebPush.PublicKey, cfg.WebPush.PrivateKey, cfg.WebPush.Subject)
	} else {
		logger.Warn("web push disabled, run `circles vapid-keys` to create a key pair")
	}

	var encKey []byte
	if cfg.EncryptionKey != "" {
		key, err := crypto.DeriveKey(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
		}
		encKey = key
	}

	notificationService := services.NewNotificationService(
		store, hub, pusher, cfg.WebPush.PublicKey, encKey, lang, logger)
	suggestionService := services.NewSuggestionService(
		store, embedder, cfg.Embedding.SuggestionThreshold, logger)

	svcs := &Services{
		Auth: services.NewAuthService(
			store, emailSender, logger,
			cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry, lang),
		User:         services.NewUserService(store),
		Notification: notificationService,
		Suggestion:   suggestionService,
		Circle:       services.NewCircleService(store, embedder, suggestionService, logger),
		Member:       services.NewMemberService(store, hub, logger),
		Membership:   services.NewMembershipService(store, notificationService, emailSender, lang, logger),
		Activity:     services.NewActivityService(store, notificationService, cfg.App.Location(), lang, logger),
		Topic:        services.NewTopicService(store, notificationService, lang, logger),
		Album:        services.NewAlbumService(store),
		WelcomeCard:  services.NewWelcomeCardService(store),
		Upload:       services.NewUploadService(cfg.Upload.Dir, cfg.Upload.MaxSize),
	}

	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		Post:  ratelimit.NewPostRateLimiter(5, 10*time.Second, 30*time.Second),
	}

	return svcs, limiters, nil
}
