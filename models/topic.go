package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TopicType separates member threads from admin announcements.
type TopicType string

const (
	TopicThread       TopicType = "thread"
	TopicAnnouncement TopicType = "announcement"
)

func (t TopicType) Valid() bool {
	return t == TopicThread || t == TopicAnnouncement
}

// Topic is a thread or an announcement posted in a circle.
type Topic struct {
	ID           string      `json:"id"`
	CircleID     string      `json:"circle_id"`
	UserID       string      `json:"user_id"`
	Type         TopicType   `json:"type"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	IsImportant  bool        `json:"is_important"`
	CommentCount int         `json:"comment_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Author       *MemberUser `json:"author,omitempty"`
	Comments     []Comment   `json:"comments,omitempty"`
}

// Comment is a reply under a topic.
type Comment struct {
	ID        string      `json:"id"`
	TopicID   string      `json:"topic_id"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Author    *MemberUser `json:"author,omitempty"`
}

const (
	maxTopicTitle   = 100
	maxTopicContent = 5000
	maxComment      = 2000
)

// TopicRequest is the create / update payload. IsImportant only applies to
// announcements.
type TopicRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsImportant bool   `json:"is_important"`
}

func (r *TopicRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > maxTopicTitle {
		return fmt.Errorf("title must be between 1 and %d characters", maxTopicTitle)
	}
	r.Content = strings.TrimSpace(r.Content)
	if n := utf8.RuneCountInString(r.Content); n < 1 || n > maxTopicContent {
		return fmt.Errorf("content must be between 1 and %d characters", maxTopicContent)
	}
	return nil
}

type CommentRequest struct {
	Content string `json:"content"`
}

func (r *CommentRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if n := utf8.RuneCountInString(r.Content); n < 1 || n > maxComment {
		return fmt.Errorf("comment must be between 1 and %d characters", maxComment)
	}
	return nil
}
