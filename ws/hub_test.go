package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/akinalp/circles/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeValidator struct{}

func (fakeValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token == "bad" {
		return nil, errors.New("invalid")
	}
	return &models.TokenClaims{UserID: token}, nil
}

type testEnv struct {
	hub    *Hub
	server *httptest.Server
	cancel context.CancelFunc
	done   chan struct{}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hub := NewHub(zap.NewNop())
	hub.SetReadyBuilder(func(_ context.Context, userID string) (any, error) {
		return ReadyData{UserID: userID, UnreadCount: 3}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	env := &testEnv{hub: hub, cancel: cancel, done: make(chan struct{})}
	go func() {
		hub.Run(ctx)
		close(env.done)
	}()

	env.server = httptest.NewServer(http.HandlerFunc(NewHandler(hub, fakeValidator{}, nil).HandleConnection))
	t.Cleanup(env.close)
	return env
}

func (e *testEnv) close() {
	e.cancel()
	<-e.done
	e.server.Close()
}

func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func waitOnline(t *testing.T, hub *Hub, userID string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.IsOnline(userID) }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ReadyThenBroadcast(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "u1")

	ready := readEvent(t, conn)
	assert.Equal(t, OpReady, ready.Op)
	assert.Equal(t, float64(3), ready.Data.(map[string]any)["unread_count"])

	waitOnline(t, env.hub, "u1")
	env.hub.BroadcastToUsers([]string{"u1", "offline"}, Event{Op: OpNotificationCreate, Data: map[string]string{"id": "n1"}})

	ev := readEvent(t, conn)
	assert.Equal(t, OpNotificationCreate, ev.Op)
	assert.Greater(t, ev.Seq, ready.Seq)
}

func TestHub_Heartbeat(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "u1")
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
}

func TestHub_MultipleTabs(t *testing.T) {
	env := newTestEnv(t)
	a := env.dial(t, "u1")
	b := env.dial(t, "u1")
	readEvent(t, a)
	readEvent(t, b)

	require.Eventually(t, func() bool {
		env.hub.mu.RLock()
		defer env.hub.mu.RUnlock()
		return len(env.hub.clients["u1"]) == 2
	}, 2*time.Second, 10*time.Millisecond)

	env.hub.BroadcastToUser("u1", Event{Op: OpNotificationRead})
	assert.Equal(t, OpNotificationRead, readEvent(t, a).Op)
	assert.Equal(t, OpNotificationRead, readEvent(t, b).Op)
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "u1")
	readEvent(t, conn)
	waitOnline(t, env.hub, "u1")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !env.hub.IsOnline("u1") }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, env.hub.GetOnlineUserIDs())
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "u1")
	readEvent(t, conn)
	waitOnline(t, env.hub, "u1")

	env.cancel()
	<-env.done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHandler_RejectsMissingOrBadToken(t *testing.T) {
	env := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url+"/", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(url+"/?token=bad", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	resp.Body.Close()
}
