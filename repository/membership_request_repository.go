package repository

import (
	"context"
	"time"

	"github.com/akinalp/circles/models"
)

// MembershipRequestRepository stores join and withdrawal requests.
type MembershipRequestRepository interface {
	Create(ctx context.Context, req *models.MembershipRequest) error
	GetByID(ctx context.Context, id string) (*models.MembershipRequest, error)
	// HasPending reports whether the user has a pending request of type t.
	HasPending(ctx context.Context, circleID, userID string, t models.RequestType) (bool, error)
	ListPending(ctx context.Context, circleID string) ([]models.MembershipRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.MembershipRequest, error)
	// Resolve moves a pending request to status. A request that is no longer
	// pending yields pkg.ErrConflict.
	Resolve(ctx context.Context, id string, status models.RequestStatus, resolvedBy *string, at time.Time) error
}
