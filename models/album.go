package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Album is a titled set of circle photos.
type Album struct {
	ID          string       `json:"id"`
	CircleID    string       `json:"circle_id"`
	CreatedBy   string       `json:"created_by"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CoverURL    *string      `json:"cover_url"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Images      []AlbumImage `json:"images,omitempty"`
}

// AlbumImage is one photo; Position orders the album.
type AlbumImage struct {
	ID       string `json:"id"`
	AlbumID  string `json:"album_id"`
	ImageURL string `json:"image_url"`
	Position int    `json:"position"`
}

const maxAlbumImages = 100

// AlbumRequest is the create / update payload. ImageURLs replaces the
// album's images in the given order.
type AlbumRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"image_urls"`
}

func (r *AlbumRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > 100 {
		return fmt.Errorf("title must be between 1 and 100 characters")
	}
	r.Description = strings.TrimSpace(r.Description)
	if utf8.RuneCountInString(r.Description) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}

	urls := make([]string, 0, len(r.ImageURLs))
	for _, u := range r.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > maxAlbumImages {
		return fmt.Errorf("an album can hold at most %d images", maxAlbumImages)
	}
	r.ImageURLs = urls
	return nil
}
