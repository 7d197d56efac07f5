package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/email"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
)

// MembershipService runs the join / withdrawal request workflow.
type MembershipService interface {
	RequestMembership(ctx context.Context, userID, circleID string, req *models.CreateMembershipRequest) (*models.MembershipRequest, error)
	// CancelRequest withdraws the caller's own pending request.
	CancelRequest(ctx context.Context, userID, requestID string) error
	ListPending(ctx context.Context, actorID, circleID string) ([]models.MembershipRequest, error)
	ListMine(ctx context.Context, userID string) ([]models.MembershipRequest, error)
	ResolveRequest(ctx context.Context, actorID, circleID, requestID string, req *models.ResolveMembershipRequest) (*models.MembershipRequest, error)
}

type membershipService struct {
	store         *repository.Store
	notifications NotificationService
	emailSender   email.EmailSender
	language      string
	log           *zap.Logger
}

// NewMembershipService builds the service. emailSender may be nil.
func NewMembershipService(
	store *repository.Store,
	notifications NotificationService,
	emailSender email.EmailSender,
	defaultLanguage string,
	logger *zap.Logger,
) MembershipService {
	return &membershipService{
		store:         store,
		notifications: notifications,
		emailSender:   emailSender,
		language:      defaultLanguage,
		log:           logger.Named("membership"),
	}
}

func (s *membershipService) RequestMembership(ctx context.Context, userID, circleID string, req *models.CreateMembershipRequest) (*models.MembershipRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	circle, err := s.store.Circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	member, err := s.store.Members.GetActive(ctx, circleID, userID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	switch req.Type {
	case models.RequestTypeJoin:
		if member != nil {
			return nil, fmt.Errorf("%w: already a member of this circle", pkg.ErrConflict)
		}
	case models.RequestTypeWithdrawal:
		if member == nil {
			return nil, fmt.Errorf("%w: not a member of this circle", pkg.ErrBadRequest)
		}
		if member.Role == models.RoleRepresentative {
			return nil, fmt.Errorf("%w: the representative must hand over the role before leaving", pkg.ErrForbidden)
		}
	}

	pending, err := s.store.Requests.HasPending(ctx, circleID, userID, req.Type)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a %s request is already pending", pkg.ErrConflict, req.Type)
	}

	request := &models.MembershipRequest{
		CircleID: circleID,
		UserID:   userID,
		Type:     req.Type,
	}
	if err := s.store.Requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, circle, request)
	return request, nil
}

func (s *membershipService) CancelRequest(ctx context.Context, userID, requestID string) error {
	request, err := s.store.Requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.UserID != userID {
		return fmt.Errorf("%w: request not found", pkg.ErrNotFound)
	}

	return s.store.Requests.Resolve(ctx, requestID, models.RequestStatusCanceled, nil, time.Now())
}

func (s *membershipService) ListPending(ctx context.Context, actorID, circleID string) ([]models.MembershipRequest, error) {
	if _, err := requireAdmin(ctx, s.store.Repos, circleID, actorID); err != nil {
		return nil, err
	}
	requests, err := s.store.Requests.ListPending(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.MembershipRequest{}
	}
	return requests, nil
}

func (s *membershipService) ListMine(ctx context.Context, userID string) ([]models.MembershipRequest, error) {
	requests, err := s.store.Requests.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.MembershipRequest{}
	}
	return requests, nil
}

// ResolveRequest approves or rejects a pending request. Approving a join
// adds a fresh member row with role member; approving a withdrawal ends the
// membership and drops the user from upcoming activities.
func (s *membershipService) ResolveRequest(ctx context.Context, actorID, circleID, requestID string, req *models.ResolveMembershipRequest) (*models.MembershipRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	status := models.RequestStatusRejected
	if req.Action == models.ResolveApprove {
		status = models.RequestStatusApproved
	}

	now := time.Now()
	var request *models.MembershipRequest
	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if _, err := requireAdmin(ctx, tx, circleID, actorID); err != nil {
			return err
		}

		var err error
		request, err = tx.Requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.CircleID != circleID {
			return fmt.Errorf("%w: request not found", pkg.ErrNotFound)
		}

		if err := tx.Requests.Resolve(ctx, requestID, status, &actorID, now); err != nil {
			return err
		}

		if status == models.RequestStatusApproved {
			if err := applyApproval(ctx, tx, request, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = status
	request.ResolvedBy = &actorID
	resolvedAt := now.UTC().Truncate(time.Second)
	request.ResolvedAt = &resolvedAt

	s.notifyRequester(ctx, request)

	s.log.Info("membership request resolved",
		zap.String("request_id", requestID),
		zap.String("type", string(request.Type)),
		zap.String("status", string(status)),
		zap.String("by", actorID),
	)
	return request, nil
}

func applyApproval(ctx context.Context, tx *repository.Repos, request *models.MembershipRequest, now time.Time) error {
	switch request.Type {
	case models.RequestTypeJoin:
		return tx.Members.Add(ctx, &models.CircleMember{
			CircleID:   request.CircleID,
			UserID:     request.UserID,
			Role:       models.RoleMember,
			JoinedDate: now,
		})
	case models.RequestTypeWithdrawal:
		member, err := tx.Members.GetActive(ctx, request.CircleID, request.UserID)
		if err != nil {
			return err
		}
		if member.Role == models.RoleRepresentative {
			return fmt.Errorf("%w: the representative cannot withdraw", pkg.ErrConflict)
		}
		if err := tx.Members.Leave(ctx, member.ID, now); err != nil {
			return err
		}
		return tx.Activities.RemoveFromUpcoming(ctx, request.CircleID, request.UserID, now)
	}
	return fmt.Errorf("%w: unknown request type", pkg.ErrBadRequest)
}

func (s *membershipService) notifyAdmins(ctx context.Context, circle *models.Circle, request *models.MembershipRequest) {
	admins, err := s.store.Members.ListAdminUserIDs(ctx, circle.ID)
	if err != nil {
		s.log.Warn("failed to list circle admins", zap.String("circle_id", circle.ID), zap.Error(err))
		return
	}

	requester := request.UserID
	if user, err := s.store.Users.GetByID(ctx, request.UserID); err == nil {
		requester = user.Name
	}

	l := i18n.NewLocalizer(s.language)
	typeName := l.T("request_type." + string(request.Type))

	_, err = s.notifications.Notify(ctx, &models.NewNotification{
		Type: models.NotificationMembershipRequest,
		Title: l.TWithParams("notification.membership_request_title", map[string]string{
			"circle": circle.Name, "type": typeName,
		}),
		Content: strPtr(l.TWithParams("notification.membership_request_body", map[string]string{
			"user": requester, "type": typeName,
		})),
		CircleID:        &circle.ID,
		RelatedEntityID: &request.ID,
		RecipientIDs:    admins,
	})
	if err != nil {
		s.log.Warn("failed to notify circle admins", zap.String("request_id", request.ID), zap.Error(err))
	}
}

// notifyRequester tells the requester the outcome in their own language
// and mails it when email is configured.
func (s *membershipService) notifyRequester(ctx context.Context, request *models.MembershipRequest) {
	circle, err := s.store.Circles.GetByID(ctx, request.CircleID)
	if err != nil {
		s.log.Warn("failed to load circle for notification", zap.String("circle_id", request.CircleID), zap.Error(err))
		return
	}
	user, err := s.store.Users.GetByID(ctx, request.UserID)
	if err != nil {
		s.log.Warn("failed to load requester", zap.String("user_id", request.UserID), zap.Error(err))
		return
	}

	lang := user.Language
	if !i18n.IsSupported(lang) {
		lang = s.language
	}
	l := i18n.NewLocalizer(lang)
	params := map[string]string{
		"circle": circle.Name,
		"type":   l.T("request_type." + string(request.Type)),
	}

	n := &models.NewNotification{
		CircleID:        &circle.ID,
		RelatedEntityID: &request.ID,
		RecipientIDs:    []string{request.UserID},
	}
	switch {
	case request.Type == models.RequestTypeJoin && request.Status == models.RequestStatusApproved:
		n.Type = models.NotificationCircleInvite
		n.Title = l.TWithParams("notification.invite_title", params)
		n.Content = strPtr(l.TWithParams("notification.invite_body", params))
	case request.Status == models.RequestStatusApproved:
		n.Type = models.NotificationMembershipResult
		n.Title = l.TWithParams("notification.result_title", params)
		n.Content = strPtr(l.TWithParams("notification.result_approved", params))
	default:
		n.Type = models.NotificationMembershipResult
		n.Title = l.TWithParams("notification.result_title", params)
		n.Content = strPtr(l.TWithParams("notification.result_rejected", params))
	}

	if _, err := s.notifications.Notify(ctx, n); err != nil {
		s.log.Warn("failed to notify requester", zap.String("request_id", request.ID), zap.Error(err))
	}

	if s.emailSender == nil {
		return
	}
	subject := l.TWithParams("email.membership_subject", params)
	if err := s.emailSender.SendMembershipDecision(ctx, user.Email, subject, *n.Content, circle.ID); err != nil {
		s.log.Warn("failed to send membership email", zap.String("user_id", user.ID), zap.Error(err))
	}
}
