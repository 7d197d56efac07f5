package repository

import (
	"context"
	"time"

	"github.com/akinalp/circles/models"
)

// SessionRepository stores one row per issued refresh token. A refresh
// deletes the used row and creates a new one.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetByRefreshToken returns pkg.ErrNotFound for unknown or rotated tokens.
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID signs the user out everywhere, e.g. after a password reset.
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
