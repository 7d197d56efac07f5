package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteNotificationRepo struct {
	db database.TxQuerier
}

func NewSQLiteNotificationRepo(db database.TxQuerier) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = newID()
	n.CreatedAt = dbNow()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, title, content, circle_id, related_entity_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Type), n.Title, n.Content, n.CircleID, n.RelatedEntityID, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepo) AddRecipients(ctx context.Context, notificationID string, userIDs []string) error {
	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO notification_states (notification_id, user_id) VALUES (?, ?)`,
			notificationID, userID,
		); err != nil {
			return fmt.Errorf("failed to add notification recipient: %w", err)
		}
	}
	return nil
}

func (r *sqliteNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.NotificationWithState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.id, n.type, n.title, n.content, n.circle_id, n.related_entity_id, n.created_at, s.read_at
		FROM notification_states s
		JOIN notifications n ON n.id = s.notification_id
		WHERE s.user_id = ?
		ORDER BY n.created_at DESC, n.rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	list := []models.NotificationWithState{}
	for rows.Next() {
		var n models.NotificationWithState
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Content, &n.CircleID,
			&n.RelatedEntityID, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *sqliteNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_states WHERE user_id = ? AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (r *sqliteNotificationRepo) MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notification_states SET read_at = ?
		WHERE user_id = ? AND notification_id = ? AND read_at IS NULL`,
		dbTime(at), userID, notificationID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return result.RowsAffected()
}

func (r *sqliteNotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notification_states SET read_at = ? WHERE user_id = ? AND read_at IS NULL`,
		dbTime(at), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

type sqlitePushSubscriptionRepo struct {
	db database.TxQuerier
}

func NewSQLitePushSubscriptionRepo(db database.TxQuerier) PushSubscriptionRepository {
	return &sqlitePushSubscriptionRepo{db: db}
}

func (r *sqlitePushSubscriptionRepo) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	sub.ID = newID()
	sub.CreatedAt = dbNow()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			user_id = excluded.user_id, p256dh = excluded.p256dh, auth = excluded.auth
		RETURNING id, created_at`,
		sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

func (r *sqlitePushSubscriptionRepo) ListByUsers(ctx context.Context, userIDs []string) ([]models.PushSubscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(userIDs)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var s models.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *sqlitePushSubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}

func (r *sqlitePushSubscriptionRepo) DeleteForUser(ctx context.Context, userID, endpoint string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`, userID, endpoint)
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: subscription not found", pkg.ErrNotFound))
}
