package repository

import (
	"context"
	"time"

	"github.com/akinalp/circles/models"
)

// NotificationRepository stores notifications and per-recipient read state.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	AddRecipients(ctx context.Context, notificationID string, userIDs []string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.NotificationWithState, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead and MarkAllRead touch unread rows only and return how many
	// rows changed.
	MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

// PushSubscriptionRepository stores browser push endpoints.
type PushSubscriptionRepository interface {
	// Upsert inserts the subscription or, for a known endpoint, moves it to
	// sub.UserID with the new keys.
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	ListByUsers(ctx context.Context, userIDs []string) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteForUser(ctx context.Context, userID, endpoint string) error
}
