package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/artisansally/ally/pkg/storage"
)

// MaxUploadBytes caps a single listing photo.
const MaxUploadBytes = 5 << 20

var (
	ErrUploadTooLarge  = errors.New("file exceeds 5 MB")
	ErrUnsupportedType = errors.New("only JPEG, PNG and WebP images are accepted")
)

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type UploadService struct {
	disk func() storage.Disk
}

// NewUploadService stores files on disk, or on the default disk when nil.
func NewUploadService(disk storage.Disk) *UploadService {
	if disk == nil {
		return &UploadService{disk: storage.Default}
	}
	return &UploadService{disk: func() storage.Disk { return disk }}
}

// Upload stores a listing photo and returns its public URL. The type is
// sniffed from content, not trusted from the client.
func (s *UploadService) Upload(ctx context.Context, userID uint, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxUploadBytes {
		return "", ErrUploadTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExt[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := fmt.Sprintf("listings/%d/%s.%s", userID, uuid.NewString(), ext)
	disk := s.disk()
	if err := disk.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", err
	}
	return disk.URL(key), nil
}
