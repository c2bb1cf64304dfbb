// Package storage persists screenshot images to durable object storage and
// hands back public URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/dropoutsanta/cursorleaderboard/internal/config"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

// ScreenshotStore is a write-once image store.
type ScreenshotStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

// CloudinaryStore uploads screenshots to Cloudinary.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore creates a Cloudinary-backed screenshot store.
func NewCloudinaryStore(cfg *config.Config) (*CloudinaryStore, error) {
	c := cfg.Cloudinary
	if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
		return nil, fmt.Errorf("cloudinary configuration is missing")
	}

	cld, err := cloudinary.NewFromParams(c.CloudName, c.APIKey, c.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryStore{
		cld:    cld,
		folder: c.Folder,
	}, nil
}

// UploadKey builds a collision-resistant object key: upload timestamp plus a
// random suffix, keeping the original file extension.
func UploadKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), suffix, ext)
}

// Upload stores the screenshot bytes under a generated key and returns the
// public URL. Never overwrites an existing object.
func (s *CloudinaryStore) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := UploadKey(filename)
	publicID := strings.TrimSuffix(key, filepath.Ext(key))
	overwrite := false

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", apperrors.New(apperrors.CodeStorageWriteFailed,
			"Failed to upload screenshot", err)
	}

	return result.SecureURL, nil
}
