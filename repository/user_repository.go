// Package repository is the data access layer. Services depend on the
// interfaces declared here; the SQLite implementations accept a
// database.TxQuerier so the same repository works on the shared pool or
// inside a transaction.
package repository

import (
	"context"

	"github.com/akinalp/circles/models"
)

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update writes name, profile text, profile image and language.
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ListInstructors(ctx context.Context) ([]models.MemberUser, error)
	// ExistingIDs returns the subset of ids that belong to a user.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}
