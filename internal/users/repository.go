package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbuddy/backend/internal/models"
)

const userColumns = `id, provider_id, email, password_hash, name, avatar_url, role,
	visible, show_avatar, show_orgs, show_email, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var providerID, password, avatarURL *string
	err := row.Scan(&u.ID, &providerID, &u.Email, &password, &u.Name, &avatarURL, &u.Role,
		&u.Settings.Visible, &u.Settings.ShowAvatar, &u.Settings.ShowOrgs, &u.Settings.ShowEmail,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if providerID != nil {
		u.ProviderID = *providerID
	}
	if password != nil {
		u.Password = *password
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	return &u, nil
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (id, provider_id, email, password_hash, name, avatar_url, role,
			visible, show_avatar, show_orgs, show_email)
		VALUES (gen_random_uuid(), NULLIF($1,''), $2, NULLIF($3,''), $4, NULLIF($5,''), $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, u.ProviderID, u.Email, u.Password, u.Name, u.AvatarURL,
		string(u.Role), u.Settings.Visible, u.Settings.ShowAvatar, u.Settings.ShowOrgs, u.Settings.ShowEmail).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// GetByID returns a user by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFound("user", id)
	}
	return u, err
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Resource: "user"}
	}
	return u, err
}

// GetByProviderID returns a user by the external identity-provider subject.
func (r *Repository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider_id = $1`, providerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Resource: "user"}
	}
	return u, err
}

// List returns all users ordered by name.
func (r *Repository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Update persists the user's mutable fields.
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET email = $2, password_hash = NULLIF($3,''), name = $4,
			avatar_url = NULLIF($5,''), role = $6, visible = $7, show_avatar = $8,
			show_orgs = $9, show_email = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Email, u.Password, u.Name, u.AvatarURL,
		string(u.Role), u.Settings.Visible, u.Settings.ShowAvatar, u.Settings.ShowOrgs, u.Settings.ShowEmail).
		Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFound("user", u.ID)
	}
	return err
}

// Delete removes the user; their bookings go with it (FK cascade). Ownership
// rows must already be released by the caller.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFound("user", id)
	}
	return nil
}
