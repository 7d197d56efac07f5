package models

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType tells the client which page a notification links to.
type NotificationType string

const (
	NotificationCircleThread       NotificationType = "CIRCLE_THREAD"
	NotificationCircleAnnouncement NotificationType = "CIRCLE_ANNOUNCEMENT"
	NotificationCircleInvite       NotificationType = "CIRCLE_INVITE"
	NotificationCircleActivity     NotificationType = "CIRCLE_ACTIVITY"
	NotificationMembershipRequest  NotificationType = "MEMBERSHIP_REQUEST"
	NotificationMembershipResult   NotificationType = "MEMBERSHIP_RESULT"
)

// Notification is stored once and fanned out through one state row per
// recipient.
type Notification struct {
	ID              string           `json:"id"`
	Type            NotificationType `json:"type"`
	Title           string           `json:"title"`
	Content         *string          `json:"content"`
	CircleID        *string          `json:"circle_id"`
	RelatedEntityID *string          `json:"related_entity_id"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NotificationWithState is a notification as one recipient sees it.
type NotificationWithState struct {
	Notification
	ReadAt *time.Time `json:"read_at"`
}

// NewNotification is the input to notification creation.
type NewNotification struct {
	Type            NotificationType
	Title           string
	Content         *string
	CircleID        *string
	RelatedEntityID *string
	RecipientIDs    []string
}

// PushSubscription is a browser push endpoint. P256dh and Auth are stored
// encrypted when an encryption key is configured.
type PushSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"-"`
	Auth      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PushSubscriptionRequest mirrors the browser's PushSubscription.toJSON().
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (r *PushSubscriptionRequest) Validate() error {
	r.Endpoint = strings.TrimSpace(r.Endpoint)
	if !strings.HasPrefix(r.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an https url")
	}
	if r.Keys.P256dh == "" || r.Keys.Auth == "" {
		return fmt.Errorf("keys.p256dh and keys.auth are required")
	}
	return nil
}

type DeleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}
