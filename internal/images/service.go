package images

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/storage"
)

// Store is the image metadata persistence the service needs.
type Store interface {
	Create(ctx context.Context, img *models.Image) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Image, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ObjectStore is the blob storage behind image metadata.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error
	DeleteObject(ctx context.Context, key string) error
	GetObjectStream(ctx context.Context, key string) (io.ReadCloser, string, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)
	PresignExpire() time.Duration
}

// Service stores uploaded images in S3 with their metadata row.
type Service struct {
	store   Store
	objects ObjectStore
	logger  *zap.Logger
}

// NewService creates an image service.
func NewService(store Store, objects ObjectStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, objects: objects, logger: logger}
}

func folderFor(t models.ImageType) string {
	switch t {
	case models.ImageTypeEvent:
		return storage.FolderEvents
	case models.ImageTypeOrganization:
		return storage.FolderOrganizations
	default:
		return storage.FolderAvatars
	}
}

// Upload validates and stores an image, returning its metadata.
func (s *Service) Upload(ctx context.Context, t models.ImageType, filename, contentType string, size int64, body io.Reader) (*models.Image, error) {
	if size > storage.MaxImageFileSize {
		return nil, models.NewValidation("file exceeds the %d byte limit", storage.MaxImageFileSize)
	}
	if !storage.ValidateImageFileType(contentType, filename) {
		return nil, models.NewValidation("unsupported image type %q", contentType)
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(filename)
	}

	img := &models.Image{
		ID:          uuid.New(),
		Type:        t,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
	}
	img.S3Key = storage.ImageKey(folderFor(t), img.ID.String(), filename)

	if err := s.objects.Upload(ctx, img.S3Key, contentType, body, size); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if err := s.store.Create(ctx, img); err != nil {
		if derr := s.objects.DeleteObject(ctx, img.S3Key); derr != nil {
			s.logger.Warn("orphaned image object after failed insert",
				zap.String("s3_key", img.S3Key), zap.Error(derr))
		}
		return nil, err
	}
	return img, nil
}

// Get returns image metadata by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	return s.store.GetByID(ctx, id)
}

// DownloadURL returns a short-lived presigned URL for the stored object.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	img, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.objects.GeneratePresignedDownloadURL(ctx, img.S3Key, s.objects.PresignExpire())
}

// Open returns the image bytes and content type for streaming. Caller must
// close the reader.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	img, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return s.objects.GetObjectStream(ctx, img.S3Key)
}

// Delete removes the image object and its metadata. A missing S3 object is
// not an error; the metadata row still goes away.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	img, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.objects.DeleteObject(ctx, img.S3Key); err != nil {
		s.logger.Warn("image object delete failed",
			zap.String("s3_key", img.S3Key), zap.Error(err))
	}
	return s.store.Delete(ctx, id)
}
