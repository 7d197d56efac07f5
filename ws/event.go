// Package ws pushes real-time events to connected browsers.
//
// Wire format: every frame is a JSON Event {op, d, seq}. Clients only send
// heartbeats; everything else flows server -> client.
package ws

// Event is one WebSocket frame.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server.
const (
	OpHeartbeat = "heartbeat"
)

// Server -> client.
const (
	OpReady              = "ready"
	OpHeartbeatAck       = "heartbeat_ack"
	OpNotificationCreate = "notification_create"
	OpNotificationRead   = "notification_read"
	OpMemberUpdate       = "member_update"
)

// ReadyData is sent once per connection.
type ReadyData struct {
	UserID      string `json:"user_id"`
	UnreadCount int    `json:"unread_count"`
}

// NotificationReadData tells the user's other tabs what was read. An empty
// NotificationID means every notification.
type NotificationReadData struct {
	NotificationID string `json:"notification_id,omitempty"`
	UnreadCount    int    `json:"unread_count"`
}

// MemberUpdateData is broadcast to a circle's members after a role change.
type MemberUpdateData struct {
	CircleID string `json:"circle_id"`
	UserID   string `json:"user_id"`
	RoleID   int    `json:"role_id"`
}
