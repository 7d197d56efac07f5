package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteAlbumRepo struct {
	db database.TxQuerier
}

func NewSQLiteAlbumRepo(db database.TxQuerier) AlbumRepository {
	return &sqliteAlbumRepo{db: db}
}

// The cover is the first image by position.
const albumColumns = `a.id, a.circle_id, a.created_by, a.title, a.description, a.created_at, a.updated_at,
	(SELECT i.image_url FROM album_images i WHERE i.album_id = a.id ORDER BY i.position LIMIT 1)`

func scanAlbum(row rowScanner) (*models.Album, error) {
	a := &models.Album{}
	err := row.Scan(&a.ID, &a.CircleID, &a.CreatedBy, &a.Title, &a.Description,
		&a.CreatedAt, &a.UpdatedAt, &a.CoverURL)
	return a, err
}

func (r *sqliteAlbumRepo) Create(ctx context.Context, a *models.Album) error {
	a.ID = newID()
	a.CreatedAt = dbNow()
	a.UpdatedAt = a.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO albums (id, circle_id, created_by, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CircleID, a.CreatedBy, a.Title, a.Description, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

func (r *sqliteAlbumRepo) GetByID(ctx context.Context, id string) (*models.Album, error) {
	a, err := scanAlbum(r.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums a WHERE a.id = ? AND a.deleted_at IS NULL`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: album not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return a, nil
}

func (r *sqliteAlbumRepo) Update(ctx context.Context, a *models.Album) error {
	a.UpdatedAt = dbNow()
	result, err := r.db.ExecContext(ctx, `
		UPDATE albums SET title = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		a.Title, a.Description, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update album: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: album not found", pkg.ErrNotFound))
}

func (r *sqliteAlbumRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE albums SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, dbNow(), id)
	if err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: album not found", pkg.ErrNotFound))
}

func (r *sqliteAlbumRepo) ListByCircle(ctx context.Context, circleID string) ([]models.Album, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+albumColumns+`
		FROM albums a WHERE a.circle_id = ? AND a.deleted_at IS NULL
		ORDER BY a.created_at DESC`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, *a)
	}
	return albums, rows.Err()
}

func (r *sqliteAlbumRepo) ReplaceImages(ctx context.Context, albumID string, urls []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM album_images WHERE album_id = ?`, albumID); err != nil {
		return fmt.Errorf("failed to clear album images: %w", err)
	}
	now := dbNow()
	for i, url := range urls {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO album_images (id, album_id, image_url, position, created_at)
			VALUES (?, ?, ?, ?, ?)`, newID(), albumID, url, i, now,
		); err != nil {
			return fmt.Errorf("failed to add album image: %w", err)
		}
	}
	return nil
}

func (r *sqliteAlbumRepo) ListImages(ctx context.Context, albumID string) ([]models.AlbumImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, album_id, image_url, position
		FROM album_images WHERE album_id = ? ORDER BY position`, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list album images: %w", err)
	}
	defer rows.Close()

	images := []models.AlbumImage{}
	for rows.Next() {
		var img models.AlbumImage
		if err := rows.Scan(&img.ID, &img.AlbumID, &img.ImageURL, &img.Position); err != nil {
			return nil, fmt.Errorf("failed to scan album image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
