package services

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
)

// AlbumService manages photo albums. Writes are reserved to circle admins.
type AlbumService interface {
	Create(ctx context.Context, actorID, circleID string, req *models.AlbumRequest) (*models.Album, error)
	Update(ctx context.Context, actorID, albumID string, req *models.AlbumRequest) (*models.Album, error)
	Delete(ctx context.Context, actorID, albumID string) error
	List(ctx context.Context, circleID string) ([]models.Album, error)
	Get(ctx context.Context, albumID string) (*models.Album, error)
}

type albumService struct {
	store *repository.Store
}

func NewAlbumService(store *repository.Store) AlbumService {
	return &albumService{store: store}
}

func (s *albumService) Create(ctx context.Context, actorID, circleID string, req *models.AlbumRequest) (*models.Album, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	album := &models.Album{
		CircleID:    circleID,
		CreatedBy:   actorID,
		Title:       req.Title,
		Description: req.Description,
	}

	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if _, err := requireAdmin(ctx, tx, circleID, actorID); err != nil {
			return err
		}
		if err := tx.Albums.Create(ctx, album); err != nil {
			return err
		}
		return tx.Albums.ReplaceImages(ctx, album.ID, req.ImageURLs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, album.ID)
}

// Update rewrites the album and replaces its images in request order.
func (s *albumService) Update(ctx context.Context, actorID, albumID string, req *models.AlbumRequest) (*models.Album, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	album, err := s.store.Albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}

	album.Title = req.Title
	album.Description = req.Description

	err = s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if _, err := requireAdmin(ctx, tx, album.CircleID, actorID); err != nil {
			return err
		}
		if err := tx.Albums.Update(ctx, album); err != nil {
			return err
		}
		return tx.Albums.ReplaceImages(ctx, albumID, req.ImageURLs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, albumID)
}

func (s *albumService) Delete(ctx context.Context, actorID, albumID string) error {
	album, err := s.store.Albums.GetByID(ctx, albumID)
	if err != nil {
		return err
	}
	if _, err := requireAdmin(ctx, s.store.Repos, album.CircleID, actorID); err != nil {
		return err
	}
	return s.store.Albums.SoftDelete(ctx, albumID)
}

func (s *albumService) List(ctx context.Context, circleID string) ([]models.Album, error) {
	albums, err := s.store.Albums.ListByCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if albums == nil {
		albums = []models.Album{}
	}
	return albums, nil
}

func (s *albumService) Get(ctx context.Context, albumID string) (*models.Album, error) {
	album, err := s.store.Albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	images, err := s.store.Albums.ListImages(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.AlbumImage{}
	}
	album.Images = images
	return album, nil
}
