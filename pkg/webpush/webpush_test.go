package webpush

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// browserSubscription fakes the key material a browser would hand out.
func browserSubscription(t *testing.T, endpoint string) Subscription {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestSend_DeliversSignedEncryptedMessage(t *testing.T) {
	var gotAuth, gotEncoding string
	var bodyLen int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotEncoding = r.Header.Get("Content-Encoding")
		body, _ := io.ReadAll(r.Body)
		bodyLen = len(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	sender := NewSender(pub, priv, "mailto:test@example.com")
	err = sender.Send(context.Background(), browserSubscription(t, srv.URL+"/push/abc"), Payload{
		Title: "テニス部スレッド",
		Body:  "new thread",
		URL:   "/notifications",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotAuth, "vapid t="), gotAuth)
	assert.Equal(t, "aes128gcm", gotEncoding)
	assert.Greater(t, bodyLen, 0)
}

func TestSend_GoneSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	err = NewSender(pub, priv, "mailto:test@example.com").
		Send(context.Background(), browserSubscription(t, srv.URL), Payload{Title: "x"})
	assert.ErrorIs(t, err, ErrSubscriptionGone)
}

func TestSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	err = NewSender(pub, priv, "mailto:test@example.com").
		Send(context.Background(), browserSubscription(t, srv.URL), Payload{Title: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSubscriptionGone)
}

func TestPayloadJSON(t *testing.T) {
	raw, err := json.Marshal(Payload{Title: "t", Body: "b", URL: "/notifications"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","body":"b","url":"/notifications"}`, string(raw))
}
