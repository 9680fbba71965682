package gcs

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// AvatarStore uploads profile pictures to a GCS bucket under
// avatars/{userID}/{uuid}{ext} and returns the public URL.
type AvatarStore struct {
	Client *storage.Client
	Bucket string
}

func NewAvatarStore(client *storage.Client, bucket string) *AvatarStore {
	return &AvatarStore{Client: client, Bucket: bucket}
}

func (s *AvatarStore) Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Client == nil || s.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, id+ext))
	return helpers.UploadObject(ctx, s.Client, s.Bucket, objectPath, contentType, r)
}
