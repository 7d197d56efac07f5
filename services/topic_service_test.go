package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/ws"
)

func TestTopic_AnnouncementsAreForAdmins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifications, hub, _ := newNotifications(store)
	svc := NewTopicService(store, notifications, "en", zap.NewNop())

	rep := createUser(t, store, "rep@u.ac.jp")
	member := createUser(t, store, "2301@u.ac.jp")
	circle := createCircleWith(t, store, "Photo", rep, map[*models.User]models.Role{member: models.RoleMember})

	_, err := svc.Create(ctx, member.ID, circle.ID, models.TopicAnnouncement, &models.TopicRequest{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = svc.Create(ctx, member.ID, circle.ID, models.TopicType("poll"), &models.TopicRequest{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	ann, err := svc.Create(ctx, rep.ID, circle.ID, models.TopicAnnouncement, &models.TopicRequest{Title: "Exhibition", Content: "Friday", IsImportant: true})
	require.NoError(t, err)
	assert.True(t, ann.IsImportant)

	thread, err := svc.Create(ctx, member.ID, circle.ID, models.TopicThread, &models.TopicRequest{Title: "Lenses", Content: "Which one?", IsImportant: true})
	require.NoError(t, err)
	assert.False(t, thread.IsImportant, "threads are never important")

	created := hub.byOp(ws.OpNotificationCreate)
	require.Len(t, created, 2)
	assert.Equal(t, []string{member.ID}, created[0].UserIDs)
	assert.Equal(t, []string{rep.ID}, created[1].UserIDs)

	repNotes, err := notifications.List(ctx, rep.ID)
	require.NoError(t, err)
	require.Len(t, repNotes, 1)
	assert.Equal(t, models.NotificationCircleThread, repNotes[0].Type)
	assert.Equal(t, "Photo thread", repNotes[0].Title)

	announcements, err := svc.List(ctx, circle.ID, models.TopicAnnouncement)
	require.NoError(t, err)
	require.Len(t, announcements, 1)
	assert.Equal(t, ann.ID, announcements[0].ID)
}

func TestTopic_ModifyPermissions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifications, _, _ := newNotifications(store)
	svc := NewTopicService(store, notifications, "en", zap.NewNop())

	rep := createUser(t, store, "rep@u.ac.jp")
	vice := createUser(t, store, "vice@u.ac.jp")
	author := createUser(t, store, "2301@u.ac.jp")
	peer := createUser(t, store, "2302@u.ac.jp")
	circle := createCircleWith(t, store, "Cook", rep, map[*models.User]models.Role{
		vice:   models.RoleViceRepresentative,
		author: models.RoleMember,
		peer:   models.RoleMember,
	})

	thread, err := svc.Create(ctx, author.ID, circle.ID, models.TopicThread, &models.TopicRequest{Title: "Recipes", Content: "Share"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, peer.ID, thread.ID, &models.TopicRequest{Title: "Mine", Content: "now"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	updated, err := svc.Update(ctx, author.ID, thread.ID, &models.TopicRequest{Title: "Recipes v2", Content: "Share more"})
	require.NoError(t, err)
	assert.Equal(t, "Recipes v2", updated.Title)

	ann, err := svc.Create(ctx, vice.ID, circle.ID, models.TopicAnnouncement, &models.TopicRequest{Title: "Rules", Content: "Wash up"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, author.ID, ann.ID), pkg.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, rep.ID, ann.ID))

	assert.ErrorIs(t, svc.Delete(ctx, peer.ID, thread.ID), pkg.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, vice.ID, thread.ID))
	_, err = svc.Get(ctx, thread.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestTopic_Comments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifications, _, _ := newNotifications(store)
	svc := NewTopicService(store, notifications, "en", zap.NewNop())

	rep := createUser(t, store, "rep@u.ac.jp")
	a := createUser(t, store, "2301@u.ac.jp")
	b := createUser(t, store, "2302@u.ac.jp")
	outsider := createUser(t, store, "2303@u.ac.jp")
	circle := createCircleWith(t, store, "Film", rep, map[*models.User]models.Role{a: models.RoleMember, b: models.RoleMember})

	topic, err := svc.Create(ctx, a.ID, circle.ID, models.TopicThread, &models.TopicRequest{Title: "Movie night", Content: "What to watch"})
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, outsider.ID, topic.ID, &models.CommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = svc.CreateComment(ctx, a.ID, topic.ID, &models.CommentRequest{Content: "   "})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	first, err := svc.CreateComment(ctx, a.ID, topic.ID, &models.CommentRequest{Content: "Akira"})
	require.NoError(t, err)
	second, err := svc.CreateComment(ctx, b.ID, topic.ID, &models.CommentRequest{Content: "Ran"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, first.ID, got.Comments[0].ID)

	assert.ErrorIs(t, svc.DeleteComment(ctx, b.ID, first.ID), pkg.ErrForbidden)
	require.NoError(t, svc.DeleteComment(ctx, b.ID, second.ID))
	require.NoError(t, svc.DeleteComment(ctx, rep.ID, first.ID))

	got, err = svc.Get(ctx, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)
}
