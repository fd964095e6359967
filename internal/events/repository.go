package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbuddy/backend/internal/models"
)

const eventColumns = `id, organization_id, title, description, event_date_time,
	street, city, zip_code, country, price,
	max_ticket_capacity, free_ticket_capacity, booked_tickets_count, max_per_booking,
	ticket_alarm, is_sold_out, image_id, version, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var description *string
	err := row.Scan(&e.ID, &e.OrganizationID, &e.Title, &description, &e.EventDateTime,
		&e.Location.Street, &e.Location.City, &e.Location.ZipCode, &e.Location.Country, &e.Price,
		&e.MaxTicketCapacity, &e.FreeTicketCapacity, &e.BookedTicketsCount, &e.MaxPerBooking,
		&e.TicketAlarm, &e.IsSoldOut, &e.ImageID, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		e.Description = *description
	}
	return &e, nil
}

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, organization_id, title, description, event_date_time,
			street, city, zip_code, country, price,
			max_ticket_capacity, free_ticket_capacity, booked_tickets_count, max_per_booking,
			ticket_alarm, is_sold_out, image_id)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.OrganizationID, e.Title, e.Description, e.EventDateTime,
		e.Location.Street, e.Location.City, e.Location.ZipCode, e.Location.Country, e.Price,
		e.MaxTicketCapacity, e.FreeTicketCapacity, e.BookedTicketsCount, e.MaxPerBooking,
		e.TicketAlarm, e.IsSoldOut, e.ImageID).
		Scan(&e.ID, &e.Version, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFound("event", id)
	}
	return e, err
}

// List returns all events, soonest first.
func (r *Repository) List(ctx context.Context) ([]*models.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date_time ASC`)
}

// ListByOrganization returns the organization's events, soonest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Event, error) {
	return r.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organization_id = $1 ORDER BY event_date_time ASC`, orgID)
}

// ListByOwner returns events hosted by organizations the user owns.
func (r *Repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE organization_id IN (SELECT organization_id FROM organization_owners WHERE user_id = $1)
		ORDER BY event_date_time ASC`
	return r.queryEvents(ctx, q, userID)
}

func (r *Repository) queryEvents(ctx context.Context, q string, args ...any) ([]*models.Event, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update persists all mutable event fields, guarded by the version the caller
// read. Returns models.ErrVersionConflict when a concurrent write won.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET organization_id = $2, title = $3, description = NULLIF($4,''),
			event_date_time = $5, street = $6, city = $7, zip_code = $8, country = $9, price = $10,
			max_ticket_capacity = $11, free_ticket_capacity = $12, booked_tickets_count = $13,
			max_per_booking = $14, ticket_alarm = $15, is_sold_out = $16, image_id = $17,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $18
		RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, q, e.ID, e.OrganizationID, e.Title, e.Description,
		e.EventDateTime, e.Location.Street, e.Location.City, e.Location.ZipCode, e.Location.Country, e.Price,
		e.MaxTicketCapacity, e.FreeTicketCapacity, e.BookedTicketsCount,
		e.MaxPerBooking, e.TicketAlarm, e.IsSoldOut, e.ImageID, e.Version).
		Scan(&e.Version, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrVersionConflict
	}
	return err
}

// Delete removes an event; its bookings go with it (FK cascade).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFound("event", id)
	}
	return nil
}
