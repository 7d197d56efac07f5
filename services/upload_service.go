package services

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

// UploadURLPrefix is where stored files are served from.
const UploadURLPrefix = "/api/uploads/"

// UploadService stores images for circles, albums, welcome cards and
// profiles. Only the URL is returned; callers persist it where it is used.
type UploadService interface {
	Upload(file multipart.File, header *multipart.FileHeader) (*models.UploadedFile, error)
}

type uploadService struct {
	uploadDir string
	maxSize   int64
}

func NewUploadService(uploadDir string, maxSize int64) UploadService {
	return &uploadService{
		uploadDir: uploadDir,
		maxSize:   maxSize,
	}
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload checks the size, sniffs the content type from the first bytes
// and writes the file under a random name.
func (s *uploadService) Upload(file multipart.File, header *multipart.FileHeader) (*models.UploadedFile, error) {
	if header.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	mimeType := http.DetectContentType(head[:n])
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeType)
	}

	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random filename: %w", err)
	}
	diskFilename := hex.EncodeToString(randomBytes) + ext

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	destPath := filepath.Join(s.uploadDir, diskFilename)
	destFile, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer destFile.Close()

	// The sniffed prefix was already consumed from file.
	written, err := io.Copy(destFile, io.MultiReader(bytes.NewReader(head[:n]), io.LimitReader(file, s.maxSize)))
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(destPath)
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	return &models.UploadedFile{
		URL:      UploadURLPrefix + diskFilename,
		Filename: sanitizeFilename(header.Filename),
		Size:     written,
		MimeType: mimeType,
	}, nil
}

// sanitizeFilename strips directories and path separators from a client
// supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}

	return name
}
