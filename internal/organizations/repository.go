package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbuddy/backend/internal/models"
)

// uniqueViolation is the Postgres error code for the name/slug unique indexes.
const uniqueViolation = "23505"

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.ErrNameTaken
	}
	return err
}

const orgColumns = `id, name, slug, description, website, image_id,
	street, city, zip_code, country, contact_email, contact_phone, created_at, updated_at`

// Repository handles organization and owner-set persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	var description, website *string
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &description, &website, &o.ImageID,
		&o.Location.Street, &o.Location.City, &o.Location.ZipCode, &o.Location.Country,
		&o.Contact.Email, &o.Contact.Phone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		o.Description = *description
	}
	if website != nil {
		o.Website = *website
	}
	return &o, nil
}

// Create inserts an organization and its initial owner set.
func (r *Repository) Create(ctx context.Context, o *models.Organization) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO organizations (id, name, slug, description, website, image_id,
			street, city, zip_code, country, contact_email, contact_phone)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, o.Name, o.Slug, o.Description, o.Website, o.ImageID,
		o.Location.Street, o.Location.City, o.Location.ZipCode, o.Location.Country,
		o.Contact.Email, o.Contact.Phone).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	for _, ownerID := range o.Owners {
		if _, err := tx.Exec(ctx,
			`INSERT INTO organization_owners (organization_id, user_id) VALUES ($1, $2)`,
			o.ID, ownerID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID returns an organization with its owner set loaded.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	o, err := scanOrganization(r.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFound("organization", id)
	}
	if err != nil {
		return nil, err
	}
	o.Owners, err = r.ownerIDs(ctx, o.ID)
	return o, err
}

// GetBySlug returns an organization by its slug with owners loaded.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	o, err := scanOrganization(r.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Resource: "organization"}
	}
	if err != nil {
		return nil, err
	}
	o.Owners, err = r.ownerIDs(ctx, o.ID)
	return o, err
}

// List returns all organizations with owners loaded, by name.
func (r *Repository) List(ctx context.Context) ([]*models.Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		if o.Owners, err = r.ownerIDs(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ListByOwner returns organizations the user owns, with owners loaded.
func (r *Repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations
		WHERE id IN (SELECT organization_id FROM organization_owners WHERE user_id = $1)
		ORDER BY name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		if o.Owners, err = r.ownerIDs(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Update persists the organization's mutable fields (not the owner set).
func (r *Repository) Update(ctx context.Context, o *models.Organization) error {
	const q = `UPDATE organizations SET name = $2, slug = $3, description = NULLIF($4,''),
			website = NULLIF($5,''), image_id = $6, street = $7, city = $8, zip_code = $9,
			country = $10, contact_email = $11, contact_phone = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, o.ID, o.Name, o.Slug, o.Description, o.Website, o.ImageID,
		o.Location.Street, o.Location.City, o.Location.ZipCode, o.Location.Country,
		o.Contact.Email, o.Contact.Phone).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFound("organization", o.ID)
	}
	return mapUniqueViolation(err)
}

// Delete removes the organization; owner rows, events, and their bookings go
// with it (FK cascade).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFound("organization", id)
	}
	return nil
}

// AddOwner inserts a user into the owner set. Idempotent.
func (r *Repository) AddOwner(ctx context.Context, orgID, userID uuid.UUID) error {
	const q = `INSERT INTO organization_owners (organization_id, user_id)
		VALUES ($1, $2) ON CONFLICT (organization_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, orgID, userID)
	return err
}

// RemoveOwner removes a user from the owner set. Removing an absent owner is
// a no-op so cascade steps stay idempotent. The delete refuses to drop the
// last remaining owner even when a concurrent removal shrank the set after
// the caller's validation.
func (r *Repository) RemoveOwner(ctx context.Context, orgID, userID uuid.UUID) error {
	const q = `DELETE FROM organization_owners
		WHERE organization_id = $1 AND user_id = $2
		AND (SELECT COUNT(*) FROM organization_owners WHERE organization_id = $1) > 1`
	tag, err := r.pool.Exec(ctx, q, orgID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM organization_owners WHERE organization_id = $1 AND user_id = $2)`,
			orgID, userID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrLastOwner
		}
	}
	return nil
}

func (r *Repository) ownerIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM organization_owners WHERE organization_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
