package images

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/storage"
)

type mockStore struct {
	create  func(ctx context.Context, img *models.Image) error
	getByID func(ctx context.Context, id uuid.UUID) (*models.Image, error)
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockStore) Create(ctx context.Context, img *models.Image) error { return m.create(ctx, img) }
func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	return m.getByID(ctx, id)
}
func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }

type mockObjects struct {
	uploaded []string
	deleted  []string
	presign  func(key string, expires time.Duration) (string, error)
}

func (m *mockObjects) Upload(_ context.Context, key, _ string, _ io.Reader, _ int64) error {
	m.uploaded = append(m.uploaded, key)
	return nil
}

func (m *mockObjects) DeleteObject(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockObjects) GetObjectStream(context.Context, string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("bytes")), "image/png", nil
}

func (m *mockObjects) GeneratePresignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	return m.presign(key, expires)
}

func (m *mockObjects) PresignExpire() time.Duration { return 15 * time.Minute }

func TestDownloadURL(t *testing.T) {
	id := uuid.New()
	store := &mockStore{
		getByID: func(context.Context, uuid.UUID) (*models.Image, error) {
			return &models.Image{ID: id, S3Key: "events/" + id.String() + ".png"}, nil
		},
	}
	objects := &mockObjects{
		presign: func(key string, expires time.Duration) (string, error) {
			assert.Equal(t, "events/"+id.String()+".png", key)
			assert.Equal(t, 15*time.Minute, expires)
			return "https://signed.example/" + key, nil
		},
	}
	svc := NewService(store, objects, nil)

	url, err := svc.DownloadURL(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/events/"+id.String()+".png", url)
}

func TestDownloadURL_MissingImage(t *testing.T) {
	store := &mockStore{
		getByID: func(_ context.Context, id uuid.UUID) (*models.Image, error) {
			return nil, models.NewNotFound("image", id)
		},
	}
	svc := NewService(store, &mockObjects{}, nil)

	_, err := svc.DownloadURL(context.Background(), uuid.New())
	assert.True(t, models.IsNotFound(err))
}

func TestUpload_RejectsOversize(t *testing.T) {
	svc := NewService(&mockStore{}, &mockObjects{}, nil)

	_, err := svc.Upload(context.Background(), models.ImageTypeEvent, "big.png", "image/png",
		storage.MaxImageFileSize+1, strings.NewReader(""))
	assert.True(t, models.IsValidation(err))
}

func TestUpload_CleansUpObjectOnFailedInsert(t *testing.T) {
	store := &mockStore{
		create: func(context.Context, *models.Image) error { return errors.New("insert failed") },
	}
	objects := &mockObjects{}
	svc := NewService(store, objects, nil)

	_, err := svc.Upload(context.Background(), models.ImageTypeEvent, "poster.png", "image/png",
		1024, strings.NewReader("bytes"))
	require.Error(t, err)
	require.Len(t, objects.uploaded, 1)
	assert.Equal(t, objects.uploaded, objects.deleted, "the stored object is removed again")
}
