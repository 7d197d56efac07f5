package services

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/repository"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	ListInstructors(ctx context.Context) ([]models.MemberUser, error)
}

type userService struct {
	store *repository.Store
}

func NewUserService(store *repository.Store) UserService {
	return &userService{store: store}
}

// GetProfile returns the user with every circle they are an active member of.
func (s *userService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	circles, err := s.store.Members.ListCirclesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if circles == nil {
		circles = []models.MemberCircle{}
	}

	return &models.UserProfile{User: *user, Circles: circles}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.ProfileText != nil {
		user.ProfileText = req.ProfileText
	}
	if req.ProfileImageURL != nil {
		user.ProfileImageURL = req.ProfileImageURL
	}
	if req.Language != nil {
		if !i18n.IsSupported(*req.Language) {
			return nil, fmt.Errorf("%w: unsupported language", pkg.ErrBadRequest)
		}
		user.Language = *req.Language
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ListInstructors(ctx context.Context) ([]models.MemberUser, error) {
	instructors, err := s.store.Users.ListInstructors(ctx)
	if err != nil {
		return nil, err
	}
	if instructors == nil {
		instructors = []models.MemberUser{}
	}
	return instructors, nil
}
