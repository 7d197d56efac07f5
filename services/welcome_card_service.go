package services

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
)

type WelcomeCardService interface {
	Get(ctx context.Context, circleID string) ([]models.WelcomeCard, error)
	// Replace swaps every card of the circle atomically. Any active member
	// may edit the cards.
	Replace(ctx context.Context, userID, circleID string, req *models.ReplaceWelcomeCardsRequest) ([]models.WelcomeCard, error)
}

type welcomeCardService struct {
	store *repository.Store
}

func NewWelcomeCardService(store *repository.Store) WelcomeCardService {
	return &welcomeCardService{store: store}
}

func (s *welcomeCardService) Get(ctx context.Context, circleID string) ([]models.WelcomeCard, error) {
	if _, err := s.store.Circles.GetByID(ctx, circleID); err != nil {
		return nil, err
	}
	cards, err := s.store.WelcomeCards.ListByCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []models.WelcomeCard{}
	}
	return cards, nil
}

func (s *welcomeCardService) Replace(ctx context.Context, userID, circleID string, req *models.ReplaceWelcomeCardsRequest) ([]models.WelcomeCard, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var cards []models.WelcomeCard
	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if _, err := requireMember(ctx, tx, circleID, userID); err != nil {
			return err
		}
		var err error
		cards, err = tx.WelcomeCards.Replace(ctx, circleID, req.Cards)
		return err
	})
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []models.WelcomeCard{}
	}
	return cards, nil
}
