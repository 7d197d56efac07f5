package repository

import (
	"context"
	"time"

	"github.com/akinalp/circles/models"
)

// ActivityRepository stores activities and their participation rows.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	SoftDelete(ctx context.Context, id string) error
	// ListByCircle returns activities starting in [from, to), oldest first.
	ListByCircle(ctx context.Context, circleID string, from, to time.Time) ([]models.Activity, error)
	// ListForUser returns activities in [from, to) of every live circle the
	// user is an active member of.
	ListForUser(ctx context.Context, userID string, from, to time.Time) ([]models.Activity, error)

	AddParticipants(ctx context.Context, activityID string, userIDs []string) error
	// GetActiveParticipation returns pkg.ErrNotFound when the user has no
	// active row.
	GetActiveParticipation(ctx context.Context, activityID, userID string) (*models.ActivityParticipant, error)
	RemoveParticipant(ctx context.Context, participantID string, at time.Time) error
	ListParticipants(ctx context.Context, activityID string) ([]models.ActivityParticipant, error)
	// RemoveFromUpcoming cancels the user's participation in every activity
	// of the circle starting after now.
	RemoveFromUpcoming(ctx context.Context, circleID, userID string, now time.Time) error
}
