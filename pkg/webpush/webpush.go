// Package webpush delivers browser push messages signed with a VAPID key
// pair (RFC 8292) using SherClockHolmes/webpush-go.
package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionGone is returned when the push service reports that the
// subscription no longer exists (404 / 410). Callers should delete it.
var ErrSubscriptionGone = errors.New("push subscription gone")

// defaultTTL is how long (seconds) the push service keeps an undelivered
// message.
const defaultTTL = 60 * 60 * 24

// Payload is the JSON document the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Subscription is a browser PushSubscription in plain form.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Sender sends one push message to one subscription.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload Payload) error
}

type vapidSender struct {
	publicKey  string
	privateKey string
	subject    string
	client     webpushgo.HTTPClient
}

// NewSender returns a Sender signing with the given VAPID keys. subject is
// the contact URI ("mailto:..." or "https://...").
func NewSender(publicKey, privateKey, subject string) Sender {
	return &vapidSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		client:     http.DefaultClient,
	}
}

func (s *vapidSender) Send(ctx context.Context, sub Subscription, payload Payload) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := webpushgo.SendNotificationWithContext(ctx, message, &webpushgo.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpushgo.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpushgo.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             defaultTTL,
		Urgency:         webpushgo.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service responded with status %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys returns a fresh key pair, both base64url encoded.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpushgo.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
