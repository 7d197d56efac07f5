package repository

import (
	"context"

	"github.com/akinalp/circles/models"
)

// CircleRepository stores circles with their tags and instructors. Every
// read skips soft-deleted circles.
type CircleRepository interface {
	Create(ctx context.Context, circle *models.Circle) error
	// GetByID loads the circle with tags, instructors and member count.
	GetByID(ctx context.Context, id string) (*models.Circle, error)
	List(ctx context.Context) ([]models.Circle, error)
	Update(ctx context.Context, circle *models.Circle) error
	SoftDelete(ctx context.Context, id string) error
	// NameTaken checks name uniqueness among live circles, ignoring excludeID.
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)

	ListTags(ctx context.Context, circleID string) ([]string, error)
	AddTags(ctx context.Context, circleID string, tags []string) error
	RemoveTags(ctx context.Context, circleID string, tags []string) error

	ListInstructorIDs(ctx context.Context, circleID string) ([]string, error)
	AddInstructors(ctx context.Context, circleID string, userIDs []string) error
	RemoveInstructors(ctx context.Context, circleID string, userIDs []string) error

	// ListWithEmbeddings returns live circles that have a vector.
	ListWithEmbeddings(ctx context.Context) ([]models.Circle, error)
	// ListMissingEmbeddings returns live circles without a vector, tags loaded.
	ListMissingEmbeddings(ctx context.Context) ([]models.Circle, error)
	UpdateEmbedding(ctx context.Context, circleID string, embedding []float32) error
}
