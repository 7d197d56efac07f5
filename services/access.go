package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
)

// requireMember returns the user's active membership or ErrForbidden.
func requireMember(ctx context.Context, repos *repository.Repos, circleID, userID string) (*models.CircleMember, error) {
	member, err := repos.Members.GetActive(ctx, circleID, userID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member of this circle", pkg.ErrForbidden)
		}
		return nil, err
	}
	return member, nil
}

// requireAdmin is requireMember restricted to the representative and vice
// representatives.
func requireAdmin(ctx context.Context, repos *repository.Repos, circleID, userID string) (*models.CircleMember, error) {
	member, err := requireMember(ctx, repos, circleID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.IsAdmin() {
		return nil, fmt.Errorf("%w: circle admin role required", pkg.ErrForbidden)
	}
	return member, nil
}
