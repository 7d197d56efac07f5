package repository

import (
	"context"
	"time"

	"github.com/akinalp/circles/models"
)

// MemberRepository stores membership periods. "Active" means leave_date
// is NULL; at most one active row exists per circle and user.
type MemberRepository interface {
	Add(ctx context.Context, member *models.CircleMember) error
	// GetActive returns pkg.ErrNotFound when the user is not an active member.
	GetActive(ctx context.Context, circleID, userID string) (*models.CircleMember, error)
	ListActive(ctx context.Context, circleID string) ([]models.CircleMember, error)
	ListActiveUserIDs(ctx context.Context, circleID string) ([]string, error)
	ListAdminUserIDs(ctx context.Context, circleID string) ([]string, error)
	UpdateRole(ctx context.Context, memberID string, role models.Role) error
	Leave(ctx context.Context, memberID string, at time.Time) error
	ListCirclesByUser(ctx context.Context, userID string) ([]models.MemberCircle, error)
}
