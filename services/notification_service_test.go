package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/crypto"
	"github.com/akinalp/circles/ws"
)

func subscribe(t *testing.T, svc NotificationService, userID, endpoint string) {
	t.Helper()
	req := &models.PushSubscriptionRequest{Endpoint: endpoint}
	req.Keys.P256dh = "p256dh-" + endpoint
	req.Keys.Auth = "auth-" + endpoint
	require.NoError(t, svc.SaveSubscription(context.Background(), userID, req))
}

func TestNotify_FansOutAndPushes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, hub, pusher := newNotifications(store)

	a := createUser(t, store, "a@u.ac.jp")
	b := createUser(t, store, "b@u.ac.jp")
	subscribe(t, svc, a.ID, "https://push.example/a")
	subscribe(t, svc, b.ID, "https://push.example/gone")
	pusher.gone["https://push.example/gone"] = true

	n, err := svc.Notify(ctx, &models.NewNotification{
		Type:         models.NotificationCircleThread,
		Title:        "Chess thread",
		RecipientIDs: []string{a.ID, b.ID, a.ID, ""},
	})
	require.NoError(t, err)
	require.NotNil(t, n)

	created := hub.byOp(ws.OpNotificationCreate)
	require.Len(t, created, 1)
	assert.Equal(t, []string{a.ID, b.ID}, created[0].UserIDs)

	assert.Equal(t, 2, pusher.calls)
	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "https://push.example/a", pusher.sent[0].Endpoint)
	assert.Equal(t, "p256dh-https://push.example/a", pusher.sent[0].P256dh)
	assert.Equal(t, "Chess thread", pusher.last.Title)
	assert.Equal(t, "You have a new notification", pusher.last.Body)
	assert.Equal(t, "/notifications", pusher.last.URL)

	subs, err := store.PushSubscriptions.ListByUsers(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, subs, 1, "the gone subscription is deleted")

	for _, u := range []*models.User{a, b} {
		count, err := svc.UnreadCount(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
}

func TestNotify_NoRecipients(t *testing.T) {
	svc, hub, _ := newNotifications(newTestStore(t))
	n, err := svc.Notify(context.Background(), &models.NewNotification{Type: models.NotificationCircleThread, Title: "x"})
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, hub.events)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, hub, _ := newNotifications(store)
	u := createUser(t, store, "a@u.ac.jp")
	other := createUser(t, store, "b@u.ac.jp")

	content := "body"
	first, err := svc.Notify(ctx, &models.NewNotification{Type: models.NotificationCircleActivity, Title: "1", Content: &content, RecipientIDs: []string{u.ID}})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, &models.NewNotification{Type: models.NotificationCircleActivity, Title: "2", RecipientIDs: []string{u.ID}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(ctx, other.ID, first.ID), pkg.ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, u.ID, first.ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, u.ID, first.ID), pkg.ErrNotFound, "already read")

	reads := hub.byOp(ws.OpNotificationRead)
	require.Len(t, reads, 1)
	assert.Equal(t, ws.NotificationReadData{NotificationID: first.ID, UnreadCount: 1}, reads[0].Event.Data)

	require.NoError(t, svc.MarkAllRead(ctx, u.ID))
	assert.ErrorIs(t, svc.MarkAllRead(ctx, u.ID), pkg.ErrNotFound)

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.NotNil(t, n.ReadAt)
	}

	ready, err := svc.BuildReady(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, ws.ReadyData{UserID: u.ID, UnreadCount: 0}, ready)
}

func TestSubscription_EncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key, err := crypto.DeriveKey("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	pusher := &fakePusher{gone: map[string]bool{}}
	svc := NewNotificationService(store, &fakeHub{}, pusher, "vapid", key, "en", zap.NewNop())
	u := createUser(t, store, "a@u.ac.jp")

	err = svc.SaveSubscription(ctx, u.ID, &models.PushSubscriptionRequest{Endpoint: "http://insecure"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	subscribe(t, svc, u.ID, "https://push.example/a")

	subs, err := store.PushSubscriptions.ListByUsers(ctx, []string{u.ID})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.NotEqual(t, "p256dh-https://push.example/a", subs[0].P256dh)

	_, err = svc.Notify(ctx, &models.NewNotification{Type: models.NotificationCircleThread, Title: "t", RecipientIDs: []string{u.ID}})
	require.NoError(t, err)
	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "p256dh-https://push.example/a", pusher.sent[0].P256dh)
	assert.Equal(t, "auth-https://push.example/a", pusher.sent[0].Auth)

	assert.Equal(t, "vapid", svc.VAPIDPublicKey())
	assert.ErrorIs(t, svc.DeleteSubscription(ctx, u.ID, "https://push.example/other"), pkg.ErrNotFound)
	require.NoError(t, svc.DeleteSubscription(ctx, u.ID, "https://push.example/a"))
}
