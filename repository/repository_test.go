package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo UserRepository, email string) *models.User {
	t.Helper()
	num, instructor := models.ClassifyEmail(email)
	u := &models.User{Email: email, Name: email, PasswordHash: "x", StudentNumber: num, IsInstructor: instructor, Language: "ja"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createCircle(t *testing.T, repo CircleRepository, name string) *models.Circle {
	t.Helper()
	c := &models.Circle{Name: name, Description: "d"}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	users := NewSQLiteUserRepo(newTestDB(t).Conn)

	u := createUser(t, users, "2301@u.ac.jp")
	createUser(t, users, "sensei@u.ac.jp")

	got, err := users.GetByEmail(ctx, "2301@u.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.StudentNumber)
	assert.Equal(t, "2301", *got.StudentNumber)

	err = users.Create(ctx, &models.User{Email: "2301@u.ac.jp", Name: "dup", PasswordHash: "x", Language: "ja"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	instructors, err := users.ListInstructors(ctx)
	require.NoError(t, err)
	require.Len(t, instructors, 1)
	assert.Equal(t, "sensei@u.ac.jp", instructors[0].Email)

	ids, err := users.ExistingIDs(ctx, []string{u.ID, "nope"})
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, ids)
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewSQLiteUserRepo(db.Conn), "1@u.ac.jp")
	sessions := NewSQLiteSessionRepo(db.Conn)

	require.NoError(t, sessions.Create(ctx, &models.Session{UserID: u.ID, RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, sessions.Create(ctx, &models.Session{UserID: u.ID, RefreshToken: "new", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := sessions.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = sessions.GetByRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	s, err := sessions.GetByRefreshToken(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.UserID)
}

func TestCircleRepo_SoftDeleteFreesName(t *testing.T) {
	ctx := context.Background()
	circles := NewSQLiteCircleRepo(newTestDB(t).Conn)

	c := createCircle(t, circles, "Tennis")
	err := circles.Create(ctx, &models.Circle{Name: "Tennis"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	taken, err := circles.NameTaken(ctx, "Tennis", c.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, circles.SoftDelete(ctx, c.ID))
	_, err = circles.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	createCircle(t, circles, "Tennis")
}

func TestCircleRepo_TagsInstructorsAndEmbeddings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	circles := NewSQLiteCircleRepo(db.Conn)

	instructor := createUser(t, users, "t@u.ac.jp")
	c := createCircle(t, circles, "Chess")

	require.NoError(t, circles.AddTags(ctx, c.ID, []string{"board", "strategy", "board"}))
	require.NoError(t, circles.RemoveTags(ctx, c.ID, []string{"strategy"}))
	require.NoError(t, circles.AddInstructors(ctx, c.ID, []string{instructor.ID}))

	got, err := circles.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"board"}, got.Tags)
	require.Len(t, got.Instructors, 1)
	assert.Equal(t, instructor.ID, got.Instructors[0].UserID)

	missing, err := circles.ListMissingEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, []string{"board"}, missing[0].Tags)

	require.NoError(t, circles.UpdateEmbedding(ctx, c.ID, []float32{0.5, 0.25}))

	with, err := circles.ListWithEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, []float32{0.5, 0.25}, with[0].Embedding)

	missing, err = circles.ListMissingEmbeddings(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMemberRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	c := createCircle(t, NewSQLiteCircleRepo(db.Conn), "Go")
	members := NewSQLiteMemberRepo(db.Conn)

	rep := createUser(t, users, "1@u.ac.jp")
	m := createUser(t, users, "2@u.ac.jp")

	require.NoError(t, members.Add(ctx, &models.CircleMember{CircleID: c.ID, UserID: rep.ID, Role: models.RoleRepresentative}))
	first := &models.CircleMember{CircleID: c.ID, UserID: m.ID, Role: models.RoleMember}
	require.NoError(t, members.Add(ctx, first))

	err := members.Add(ctx, &models.CircleMember{CircleID: c.ID, UserID: m.ID, Role: models.RoleMember})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	admins, err := members.ListAdminUserIDs(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rep.ID}, admins)

	require.NoError(t, members.UpdateRole(ctx, first.ID, models.RoleViceRepresentative))
	got, err := members.GetActive(ctx, c.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViceRepresentative, got.Role)

	require.NoError(t, members.Leave(ctx, first.ID, time.Now()))
	_, err = members.GetActive(ctx, c.ID, m.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Re-joining creates a second row.
	again := &models.CircleMember{CircleID: c.ID, UserID: m.ID, Role: models.RoleMember}
	require.NoError(t, members.Add(ctx, again))
	assert.NotEqual(t, first.ID, again.ID)

	active, err := members.ListActive(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, rep.ID, active[0].UserID)
	assert.Equal(t, "2@u.ac.jp", active[1].User.Email)

	circles, err := members.ListCirclesByUser(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, circles, 1)
	assert.Equal(t, models.RoleMember, circles[0].Role)
}

func TestMembershipRequestRepo_ResolveOnlyPending(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewSQLiteUserRepo(db.Conn), "1@u.ac.jp")
	c := createCircle(t, NewSQLiteCircleRepo(db.Conn), "Go")
	requests := NewSQLiteMembershipRequestRepo(db.Conn)

	req := &models.MembershipRequest{CircleID: c.ID, UserID: u.ID, Type: models.RequestTypeJoin}
	require.NoError(t, requests.Create(ctx, req))

	err := requests.Create(ctx, &models.MembershipRequest{CircleID: c.ID, UserID: u.ID, Type: models.RequestTypeJoin})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	pending, err := requests.HasPending(ctx, c.ID, u.ID, models.RequestTypeJoin)
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, requests.Resolve(ctx, req.ID, models.RequestStatusApproved, &u.ID, time.Now()))
	err = requests.Resolve(ctx, req.ID, models.RequestStatusRejected, &u.ID, time.Now())
	assert.ErrorIs(t, err, pkg.ErrConflict)

	got, err := requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	list, err := requests.ListPending(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestActivityRepo_RangesAndParticipation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	c := createCircle(t, NewSQLiteCircleRepo(db.Conn), "Go")
	members := NewSQLiteMemberRepo(db.Conn)
	activities := NewSQLiteActivityRepo(db.Conn)

	u := createUser(t, users, "1@u.ac.jp")
	require.NoError(t, members.Add(ctx, &models.CircleMember{CircleID: c.ID, UserID: u.ID, Role: models.RoleMember}))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 08:00 JST on April 1st is still March 31st in UTC.
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, tokyo)
	past := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	upcoming := &models.Activity{CircleID: c.ID, Title: "A", ActivityDay: models.StartOfDay(start, tokyo), StartTime: start, CreatedBy: u.ID}
	require.NoError(t, activities.Create(ctx, upcoming))
	done := &models.Activity{CircleID: c.ID, Title: "B", ActivityDay: past, StartTime: past, CreatedBy: u.ID}
	require.NoError(t, activities.Create(ctx, done))

	from, to := models.MonthRange(2026, time.April, tokyo)
	list, err := activities.ListByCircle(ctx, c.ID, from, to)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, upcoming.ID, list[0].ID)
	assert.True(t, list[0].StartTime.Equal(start))

	mine, err := activities.ListForUser(ctx, u.ID, from, to)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Go", mine[0].CircleName)

	from, to = models.MonthRange(2026, time.March, tokyo)
	list, err = activities.ListByCircle(ctx, c.ID, from, to)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, activities.AddParticipants(ctx, upcoming.ID, []string{u.ID}))
	require.NoError(t, activities.AddParticipants(ctx, done.ID, []string{u.ID}))

	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, activities.RemoveFromUpcoming(ctx, c.ID, u.ID, now))

	_, err = activities.GetActiveParticipation(ctx, upcoming.ID, u.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	p, err := activities.GetActiveParticipation(ctx, done.ID, u.ID)
	require.NoError(t, err)

	require.NoError(t, activities.RemoveParticipant(ctx, p.ID, now))
	participants, err := activities.ListParticipants(ctx, done.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestTopicRepo_ImportantFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewSQLiteUserRepo(db.Conn), "1@u.ac.jp")
	c := createCircle(t, NewSQLiteCircleRepo(db.Conn), "Go")
	topics := NewSQLiteTopicRepo(db.Conn)

	important := &models.Topic{CircleID: c.ID, UserID: u.ID, Type: models.TopicAnnouncement, Title: "I", Content: "x", IsImportant: true}
	require.NoError(t, topics.Create(ctx, important))
	normal := &models.Topic{CircleID: c.ID, UserID: u.ID, Type: models.TopicAnnouncement, Title: "N", Content: "x"}
	require.NoError(t, topics.Create(ctx, normal))
	require.NoError(t, topics.Create(ctx, &models.Topic{CircleID: c.ID, UserID: u.ID, Type: models.TopicThread, Title: "T", Content: "x"}))

	list, err := topics.ListByCircle(ctx, c.ID, models.TopicAnnouncement)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, important.ID, list[0].ID)

	comment := &models.Comment{TopicID: normal.ID, UserID: u.ID, Content: "hi"}
	require.NoError(t, topics.CreateComment(ctx, comment))
	got, err := topics.GetByID(ctx, normal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	require.NoError(t, topics.SoftDeleteComment(ctx, comment.ID))
	comments, err := topics.ListComments(ctx, normal.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAlbumAndWelcomeCards(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createUser(t, NewSQLiteUserRepo(db.Conn), "1@u.ac.jp")
	c := createCircle(t, NewSQLiteCircleRepo(db.Conn), "Go")

	albums := NewSQLiteAlbumRepo(db.Conn)
	a := &models.Album{CircleID: c.ID, CreatedBy: u.ID, Title: "Camp"}
	require.NoError(t, albums.Create(ctx, a))
	require.NoError(t, albums.ReplaceImages(ctx, a.ID, []string{"/api/uploads/1.png", "/api/uploads/2.png"}))

	got, err := albums.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CoverURL)
	assert.Equal(t, "/api/uploads/1.png", *got.CoverURL)

	cards := NewSQLiteWelcomeCardRepo(db.Conn)
	_, err = cards.Replace(ctx, c.ID, []models.WelcomeCardInput{{FrontTitle: "a", BackTitle: "b"}, {FrontTitle: "c", BackTitle: "d"}})
	require.NoError(t, err)
	_, err = cards.Replace(ctx, c.ID, []models.WelcomeCardInput{{FrontTitle: "only", BackTitle: "one"}})
	require.NoError(t, err)

	list, err := cards.ListByCircle(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "only", list[0].FrontTitle)
}

func TestNotificationRepo_ReadState(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	a := createUser(t, users, "1@u.ac.jp")
	b := createUser(t, users, "2@u.ac.jp")
	notifications := NewSQLiteNotificationRepo(db.Conn)

	n := &models.Notification{Type: models.NotificationCircleThread, Title: "t"}
	require.NoError(t, notifications.Create(ctx, n))
	require.NoError(t, notifications.AddRecipients(ctx, n.ID, []string{a.ID, b.ID}))

	count, err := notifications.CountUnread(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	changed, err := notifications.MarkRead(ctx, a.ID, n.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	changed, err = notifications.MarkRead(ctx, a.ID, n.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, changed)

	list, err := notifications.ListByUser(ctx, a.ID, 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].ReadAt)

	changed, err = notifications.MarkAllRead(ctx, b.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)
}

func TestPushSubscriptionRepo_UpsertMovesEndpoint(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	a := createUser(t, users, "1@u.ac.jp")
	b := createUser(t, users, "2@u.ac.jp")
	subs := NewSQLitePushSubscriptionRepo(db.Conn)

	require.NoError(t, subs.Upsert(ctx, &models.PushSubscription{UserID: a.ID, Endpoint: "https://p/1", P256dh: "k", Auth: "a"}))
	require.NoError(t, subs.Upsert(ctx, &models.PushSubscription{UserID: b.ID, Endpoint: "https://p/1", P256dh: "k2", Auth: "a2"}))

	list, err := subs.ListByUsers(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].UserID)
	assert.Equal(t, "k2", list[0].P256dh)

	assert.ErrorIs(t, subs.DeleteForUser(ctx, a.ID, "https://p/1"), pkg.ErrNotFound)
	require.NoError(t, subs.DeleteByEndpoint(ctx, "https://p/1"))
}

func TestKeywordEmbeddingRepo(t *testing.T) {
	ctx := context.Background()
	keywords := NewSQLiteKeywordEmbeddingRepo(newTestDB(t).Conn)

	_, err := keywords.Get(ctx, "tennis")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	require.NoError(t, keywords.Save(ctx, "tennis", []float32{1, 0}))
	require.NoError(t, keywords.Save(ctx, "empty", nil))

	v, err := keywords.Get(ctx, "tennis")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)

	_, err = keywords.Get(ctx, "empty")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
