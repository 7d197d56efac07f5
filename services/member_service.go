package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
	"github.com/akinalp/circles/ws"
	"go.uber.org/zap"
)

// MemberService changes roles inside a circle and removes members.
//
// Role rules, checked in order:
//  1. the new role must be 0, 1 or 2;
//  2. the actor must be an active admin (0 or 1);
//  3. the actor cannot change their own role;
//  4. the target must be an active member;
//  5. only the representative can hand out role 0;
//  6. a vice representative cannot touch the representative;
//  7. a target with a pending withdrawal cannot be changed.
//
// Handing out role 0 demotes the actor to vice representative in the same
// transaction, so a circle always has exactly one representative.
type MemberService interface {
	ChangeMemberRole(ctx context.Context, actorID, circleID, targetID string, role models.Role) (*models.CircleMember, error)
	Kick(ctx context.Context, actorID, circleID, targetID string) error
}

type memberService struct {
	store *repository.Store
	hub   ws.EventPublisher
	log   *zap.Logger
}

func NewMemberService(store *repository.Store, hub ws.EventPublisher, logger *zap.Logger) MemberService {
	return &memberService{
		store: store,
		hub:   hub,
		log:   logger.Named("member"),
	}
}

func (s *memberService) ChangeMemberRole(ctx context.Context, actorID, circleID, targetID string, role models.Role) (*models.CircleMember, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", pkg.ErrBadRequest)
	}

	var target, actor *models.CircleMember
	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		var err error
		actor, err = requireAdmin(ctx, tx, circleID, actorID)
		if err != nil {
			return err
		}

		if actorID == targetID {
			return fmt.Errorf("%w: cannot change your own role", pkg.ErrBadRequest)
		}

		target, err = tx.Members.GetActive(ctx, circleID, targetID)
		if err != nil {
			return err
		}

		if role == models.RoleRepresentative && actor.Role != models.RoleRepresentative {
			return fmt.Errorf("%w: only the representative can appoint a representative", pkg.ErrForbidden)
		}
		if actor.Role == models.RoleMember && role == models.RoleMember {
			return fmt.Errorf("%w: members cannot assign roles", pkg.ErrForbidden)
		}
		if actor.Role == models.RoleViceRepresentative && target.Role == models.RoleRepresentative {
			return fmt.Errorf("%w: cannot change the representative's role", pkg.ErrForbidden)
		}

		pending, err := tx.Requests.HasPending(ctx, circleID, targetID, models.RequestTypeWithdrawal)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: member has a pending withdrawal request", pkg.ErrConflict)
		}

		if role == models.RoleRepresentative {
			if err := tx.Members.UpdateRole(ctx, actor.ID, models.RoleViceRepresentative); err != nil {
				return err
			}
			actor.Role = models.RoleViceRepresentative
		}

		if err := tx.Members.UpdateRole(ctx, target.ID, role); err != nil {
			return err
		}
		target.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	updates := []*models.CircleMember{target}
	if role == models.RoleRepresentative {
		updates = append(updates, actor)
	}
	s.broadcastMemberUpdates(ctx, circleID, updates)

	s.log.Info("member role changed",
		zap.String("circle_id", circleID),
		zap.String("target", targetID),
		zap.Stringer("role", role),
		zap.String("by", actorID),
	)
	return target, nil
}

// Kick ends a membership. The representative cannot be kicked and nobody
// can kick themselves.
func (s *memberService) Kick(ctx context.Context, actorID, circleID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("%w: cannot remove yourself, request a withdrawal instead", pkg.ErrBadRequest)
	}

	now := time.Now()
	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if _, err := requireAdmin(ctx, tx, circleID, actorID); err != nil {
			return err
		}

		target, err := tx.Members.GetActive(ctx, circleID, targetID)
		if err != nil {
			return err
		}
		if target.Role == models.RoleRepresentative {
			return fmt.Errorf("%w: cannot remove the representative", pkg.ErrForbidden)
		}

		if err := tx.Members.Leave(ctx, target.ID, now); err != nil {
			return err
		}
		return tx.Activities.RemoveFromUpcoming(ctx, circleID, targetID, now)
	})
	if err != nil {
		return err
	}

	s.log.Info("member removed", zap.String("circle_id", circleID), zap.String("target", targetID), zap.String("by", actorID))
	return nil
}

func (s *memberService) broadcastMemberUpdates(ctx context.Context, circleID string, members []*models.CircleMember) {
	recipients, err := s.store.Members.ListActiveUserIDs(ctx, circleID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("failed to list members for broadcast", zap.String("circle_id", circleID), zap.Error(err))
		}
		return
	}

	for _, m := range members {
		s.hub.BroadcastToUsers(recipients, ws.Event{
			Op: ws.OpMemberUpdate,
			Data: ws.MemberUpdateData{
				CircleID: circleID,
				UserID:   m.UserID,
				RoleID:   int(m.Role),
			},
		})
	}
}
