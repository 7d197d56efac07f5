package repository

import (
	"context"
	"time"

	"github.com/akinalp/circles/models"
)

// PasswordResetRepository stores password reset tokens. Only the SHA-256
// hash of a token is persisted.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	// GetByTokenHash returns pkg.ErrNotFound for unknown hashes.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID removes every token of a user before a new one is issued.
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired removes tokens that expired before the given time and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	// GetLatestByUserID backs the resend cooldown.
	GetLatestByUserID(ctx context.Context, userID string) (*models.PasswordResetToken, error)
}
