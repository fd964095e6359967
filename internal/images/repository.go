package images

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbuddy/backend/internal/models"
)

// Repository handles image metadata persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an images repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts image metadata.
func (r *Repository) Create(ctx context.Context, img *models.Image) error {
	const q = `INSERT INTO images (id, type, filename, content_type, size_bytes, s3_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, img.ID, string(img.Type), img.Filename,
		img.ContentType, img.SizeBytes, img.S3Key).Scan(&img.CreatedAt)
}

// GetByID returns image metadata by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	const q = `SELECT id, type, filename, content_type, size_bytes, s3_key, created_at
		FROM images WHERE id = $1`
	var img models.Image
	err := r.pool.QueryRow(ctx, q, id).Scan(&img.ID, &img.Type, &img.Filename,
		&img.ContentType, &img.SizeBytes, &img.S3Key, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFound("image", id)
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Delete removes image metadata.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFound("image", id)
	}
	return nil
}
