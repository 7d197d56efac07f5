package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/crypto"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/pkg/webpush"
	"github.com/akinalp/circles/repository"
	"github.com/akinalp/circles/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	notificationListLimit = 100
	pushConcurrency       = 10
	pushTimeout           = 10 * time.Second
	notificationsURL      = "/notifications"
)

type NotificationService interface {
	// Notify stores one notification for every recipient, then delivers it
	// over WebSocket and web push. Delivery failures are logged only.
	Notify(ctx context.Context, n *models.NewNotification) (*models.Notification, error)
	List(ctx context.Context, userID string) ([]models.NotificationWithState, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error

	SaveSubscription(ctx context.Context, userID string, req *models.PushSubscriptionRequest) error
	DeleteSubscription(ctx context.Context, userID, endpoint string) error
	VAPIDPublicKey() string

	// BuildReady is the payload of the ws ready event.
	BuildReady(ctx context.Context, userID string) (any, error)
}

type notificationService struct {
	store     *repository.Store
	hub       ws.EventPublisher
	pusher    webpush.Sender
	vapidKey  string
	encKey    []byte
	localizer *i18n.Localizer
	log       *zap.Logger
}

// NewNotificationService wires delivery. pusher nil disables web push;
// encKey nil stores subscription keys in plain text.
func NewNotificationService(
	store *repository.Store,
	hub ws.EventPublisher,
	pusher webpush.Sender,
	vapidPublicKey string,
	encKey []byte,
	language string,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		store:     store,
		hub:       hub,
		pusher:    pusher,
		vapidKey:  vapidPublicKey,
		encKey:    encKey,
		localizer: i18n.NewLocalizer(language),
		log:       logger.Named("notification"),
	}
}

func (s *notificationService) Notify(ctx context.Context, n *models.NewNotification) (*models.Notification, error) {
	recipients := dedupe(n.RecipientIDs)
	if len(recipients) == 0 {
		return nil, nil
	}

	notification := &models.Notification{
		Type:            n.Type,
		Title:           n.Title,
		Content:         n.Content,
		CircleID:        n.CircleID,
		RelatedEntityID: n.RelatedEntityID,
	}

	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Notifications.Create(ctx, notification); err != nil {
			return err
		}
		return tx.Notifications.AddRecipients(ctx, notification.ID, recipients)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.hub.BroadcastToUsers(recipients, ws.Event{
		Op:   ws.OpNotificationCreate,
		Data: models.NotificationWithState{Notification: *notification},
	})

	s.push(ctx, recipients, notification)

	return notification, nil
}

// push sends to every stored subscription of the recipients with bounded
// concurrency. Subscriptions the push service reports gone are deleted.
func (s *notificationService) push(ctx context.Context, userIDs []string, n *models.Notification) {
	if s.pusher == nil {
		return
	}

	subs, err := s.store.PushSubscriptions.ListByUsers(ctx, userIDs)
	if err != nil {
		s.log.Warn("failed to list push subscriptions", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	body := s.localizer.T("notification.default_body")
	if n.Content != nil && *n.Content != "" {
		body = *n.Content
	}
	payload := webpush.Payload{Title: n.Title, Body: body, URL: notificationsURL}

	// Delivery outlives the request if the client hangs up mid-fan-out.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(pushConcurrency)
	for _, sub := range subs {
		g.Go(func() error {
			s.pushOne(pushCtx, sub, payload)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *notificationService) pushOne(ctx context.Context, sub models.PushSubscription, payload webpush.Payload) {
	p256dh, auth, err := s.openKeys(sub)
	if err != nil {
		s.log.Warn("failed to decrypt push keys", zap.String("subscription_id", sub.ID), zap.Error(err))
		return
	}

	err = s.pusher.Send(ctx, webpush.Subscription{Endpoint: sub.Endpoint, P256dh: p256dh, Auth: auth}, payload)
	switch {
	case err == nil:
	case errors.Is(err, webpush.ErrSubscriptionGone):
		if delErr := s.store.PushSubscriptions.DeleteByEndpoint(ctx, sub.Endpoint); delErr != nil {
			s.log.Warn("failed to delete gone subscription", zap.String("subscription_id", sub.ID), zap.Error(delErr))
			return
		}
		s.log.Debug("deleted gone subscription", zap.String("subscription_id", sub.ID))
	default:
		s.log.Warn("web push failed", zap.String("user_id", sub.UserID), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]models.NotificationWithState, error) {
	list, err := s.store.Notifications.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.NotificationWithState{}
	}
	return list, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.Notifications.CountUnread(ctx, userID)
}

// MarkRead fails with not found when the notification was already read or
// never addressed to the user.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.store.Notifications.MarkRead(ctx, userID, notificationID, time.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: unread notification not found", pkg.ErrNotFound)
	}

	s.broadcastRead(ctx, userID, notificationID)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	n, err := s.store.Notifications.MarkAllRead(ctx, userID, time.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: no unread notifications", pkg.ErrNotFound)
	}

	s.broadcastRead(ctx, userID, "")
	return nil
}

func (s *notificationService) broadcastRead(ctx context.Context, userID, notificationID string) {
	unread, err := s.store.Notifications.CountUnread(ctx, userID)
	if err != nil {
		s.log.Warn("failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.hub.BroadcastToUser(userID, ws.Event{
		Op:   ws.OpNotificationRead,
		Data: ws.NotificationReadData{NotificationID: notificationID, UnreadCount: unread},
	})
}

func (s *notificationService) SaveSubscription(ctx context.Context, userID string, req *models.PushSubscriptionRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	p256dh, err := s.seal(req.Keys.P256dh)
	if err != nil {
		return err
	}
	auth, err := s.seal(req.Keys.Auth)
	if err != nil {
		return err
	}

	return s.store.PushSubscriptions.Upsert(ctx, &models.PushSubscription{
		UserID:   userID,
		Endpoint: req.Endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	})
}

func (s *notificationService) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", pkg.ErrBadRequest)
	}
	return s.store.PushSubscriptions.DeleteForUser(ctx, userID, endpoint)
}

func (s *notificationService) VAPIDPublicKey() string {
	return s.vapidKey
}

func (s *notificationService) BuildReady(ctx context.Context, userID string) (any, error) {
	unread, err := s.store.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ws.ReadyData{UserID: userID, UnreadCount: unread}, nil
}

func (s *notificationService) seal(value string) (string, error) {
	if s.encKey == nil {
		return value, nil
	}
	sealed, err := crypto.Encrypt(value, s.encKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt push key: %w", err)
	}
	return sealed, nil
}

func (s *notificationService) openKeys(sub models.PushSubscription) (p256dh, auth string, err error) {
	if s.encKey == nil {
		return sub.P256dh, sub.Auth, nil
	}
	if p256dh, err = crypto.Decrypt(sub.P256dh, s.encKey); err != nil {
		return "", "", err
	}
	if auth, err = crypto.Decrypt(sub.Auth, s.encKey); err != nil {
		return "", "", err
	}
	return p256dh, auth, nil
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// without returns ids minus exclude.
func without(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
