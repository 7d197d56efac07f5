package repository

import (
	"context"

	"github.com/akinalp/circles/models"
)

// TopicRepository stores threads, announcements and their comments.
type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, id string) (*models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
	SoftDelete(ctx context.Context, id string) error
	// ListByCircle returns topics of one type, important first, then newest.
	ListByCircle(ctx context.Context, circleID string, t models.TopicType) ([]models.Topic, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	SoftDeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, topicID string) ([]models.Comment, error)
}
