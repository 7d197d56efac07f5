package repository

import (
	"context"

	"github.com/akinalp/circles/models"
)

type WelcomeCardRepository interface {
	ListByCircle(ctx context.Context, circleID string) ([]models.WelcomeCard, error)
	// Replace deletes every card of the circle and inserts cards in order.
	// Run it inside a transaction.
	Replace(ctx context.Context, circleID string, cards []models.WelcomeCardInput) ([]models.WelcomeCard, error)
}
