package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/pkg/webpush"
	"github.com/akinalp/circles/repository"
	"github.com/akinalp/circles/ws"
)

func TestMain(m *testing.M) {
	if err := i18n.Load(i18n.Locales()); err != nil {
		panic(err)
	}
	// genai pulls in opencensus, whose stats worker starts at package init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewStore(db.Conn)
}

func createUser(t *testing.T, store *repository.Store, email string) *models.User {
	t.Helper()
	num, instructor := models.ClassifyEmail(email)
	u := &models.User{Email: email, Name: email, PasswordHash: "x", StudentNumber: num, IsInstructor: instructor, Language: "en"}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

// createCircleWith makes a circle whose representative is owner; every
// extra user joins with the given role.
func createCircleWith(t *testing.T, store *repository.Store, name string, owner *models.User, others map[*models.User]models.Role) *models.Circle {
	t.Helper()
	ctx := context.Background()
	c := &models.Circle{Name: name, Description: name + " description"}
	require.NoError(t, store.Circles.Create(ctx, c))
	require.NoError(t, store.Members.Add(ctx, &models.CircleMember{CircleID: c.ID, UserID: owner.ID, Role: models.RoleRepresentative}))
	for u, role := range others {
		require.NoError(t, store.Members.Add(ctx, &models.CircleMember{CircleID: c.ID, UserID: u.ID, Role: role}))
	}
	return c
}

type sentEvent struct {
	UserIDs []string
	Event   ws.Event
}

type fakeHub struct {
	mu     sync.Mutex
	events []sentEvent
}

func (h *fakeHub) BroadcastToUser(userID string, event ws.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

func (h *fakeHub) BroadcastToUsers(userIDs []string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, sentEvent{UserIDs: append([]string(nil), userIDs...), Event: event})
}

func (h *fakeHub) IsOnline(string) bool { return false }

func (h *fakeHub) byOp(op string) []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sentEvent
	for _, e := range h.events {
		if e.Event.Op == op {
			out = append(out, e)
		}
	}
	return out
}

type fakePusher struct {
	mu    sync.Mutex
	sent  []webpush.Subscription
	last  webpush.Payload
	gone  map[string]bool
	calls int
}

func (p *fakePusher) Send(_ context.Context, sub webpush.Subscription, payload webpush.Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.gone[sub.Endpoint] {
		return webpush.ErrSubscriptionGone
	}
	p.sent = append(p.sent, sub)
	p.last = payload
	return nil
}

type sentMail struct {
	To, Subject, Body, Link string
}

type fakeMailer struct {
	mu    sync.Mutex
	mails []sentMail
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, sentMail{To: to, Subject: "reset", Body: token})
	return nil
}

func (m *fakeMailer) SendMembershipDecision(_ context.Context, to, subject, message, circleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, sentMail{To: to, Subject: subject, Body: message, Link: circleID})
	return nil
}

// fakeEmbedder returns the vector registered for a text, nil otherwise.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    bool
	calls   int
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.fail {
		return nil, errors.New("provider down")
	}
	return e.vectors[text], nil
}

func (e *fakeEmbedder) Name() string { return "fake" }

type countingInvalidator struct{ n int }

func (c *countingInvalidator) InvalidateCandidates() { c.n++ }

// newNotifications wires a notification service to fakes.
func newNotifications(store *repository.Store) (NotificationService, *fakeHub, *fakePusher) {
	hub := &fakeHub{}
	pusher := &fakePusher{gone: map[string]bool{}}
	return NewNotificationService(store, hub, pusher, "vapid-public", nil, "en", zap.NewNop()), hub, pusher
}
