package repository

import (
	"context"

	"github.com/akinalp/circles/models"
)

type AlbumRepository interface {
	Create(ctx context.Context, album *models.Album) error
	GetByID(ctx context.Context, id string) (*models.Album, error)
	Update(ctx context.Context, album *models.Album) error
	SoftDelete(ctx context.Context, id string) error
	ListByCircle(ctx context.Context, circleID string) ([]models.Album, error)
	// ReplaceImages deletes the album's images and inserts urls in order.
	ReplaceImages(ctx context.Context, albumID string, urls []string) error
	ListImages(ctx context.Context, albumID string) ([]models.AlbumImage, error)
}
