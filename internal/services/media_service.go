package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"rentspace/internal/domain"
	"rentspace/internal/storage"
)

const (
	BucketPhotos = "listing-photos"
	BucketVideos = "listing-videos"
)

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

var allowedExt = map[MediaKind][]string{
	MediaPhoto: {".jpg", ".jpeg", ".png", ".webp"},
	MediaVideo: {".mp4", ".webm", ".mov"},
}

func (k MediaKind) bucket() string {
	if k == MediaVideo {
		return BucketVideos
	}
	return BucketPhotos
}

type Upload struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

type MediaService struct {
	Store storage.ObjectStore
}

func NewMediaService(store storage.ObjectStore) *MediaService { return &MediaService{Store: store} }

// Upload stores a landlord's file under <landlord id>/<random name><ext>.
func (s *MediaService) Upload(ctx context.Context, id *domain.Identity, kind MediaKind, filename string, r io.Reader) (*Upload, error) {
	if err := requireLandlord(id); err != nil {
		return nil, err
	}
	exts, ok := allowedExt[kind]
	if !ok {
		return nil, invalid("kind", "Kind must be photo or video")
	}
	ext := strings.ToLower(path.Ext(filename))
	allowed := false
	for _, e := range exts {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, invalid("file", fmt.Sprintf("Unsupported %s type %q", kind, ext))
	}
	key := id.UserID + "/" + uuid.NewString() + ext
	url, err := s.Store.Upload(ctx, kind.bucket(), key, r)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}
	return &Upload{Bucket: kind.bucket(), Key: key, URL: url}, nil
}

func (s *MediaService) UploadPhoto(ctx context.Context, id *domain.Identity, filename string, r io.Reader) (*Upload, error) {
	return s.Upload(ctx, id, MediaPhoto, filename, r)
}

func (s *MediaService) UploadVideo(ctx context.Context, id *domain.Identity, filename string, r io.Reader) (*Upload, error) {
	return s.Upload(ctx, id, MediaVideo, filename, r)
}

// Remove deletes one of the caller's own objects.
func (s *MediaService) Remove(ctx context.Context, id *domain.Identity, kind MediaKind, key string) error {
	if err := requireLandlord(id); err != nil {
		return err
	}
	if _, ok := allowedExt[kind]; !ok {
		return invalid("kind", "Kind must be photo or video")
	}
	clean, err := storage.CleanKey(key)
	if err != nil {
		return invalid("key", "Invalid object key")
	}
	if !strings.HasPrefix(clean, id.UserID+"/") {
		return ErrForbidden
	}
	if err := s.Store.Remove(ctx, kind.bucket(), clean); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", kind, err)
	}
	return nil
}

// Open serves a stored object by its public path <bucket>/<key>.
func (s *MediaService) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	bucket, key, ok := strings.Cut(objectPath, "/")
	if !ok || (bucket != BucketPhotos && bucket != BucketVideos) {
		return nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrBadKey) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}
