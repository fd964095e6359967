package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbuddy/backend/internal/models"
)

const bookingColumns = `id, event_id, user_id, name, number_of_tickets, created_at`

// uniqueViolation is the Postgres error code raised by the (event_id, user_id)
// unique index when two bookings for the same pair race past the pre-check.
const uniqueViolation = "23505"

// Repository handles booking persistence. The write paths couple the booking
// row with a compare-and-swap update of the event's inventory counters so the
// two are visible atomically per event.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.EventID, &b.UserID, &b.Name, &b.NumberOfTickets, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID returns a booking by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFound("booking", id)
	}
	return b, err
}

// ExistsForUserAndEvent reports whether the user already booked the event.
func (r *Repository) ExistsForUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID).Scan(&exists)
	return exists, err
}

// ListByUser returns the user's bookings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListByEvent returns an event's bookings, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
}

func (r *Repository) queryBookings(ctx context.Context, q string, args ...any) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// CreateWithEvent inserts the booking and writes the event's updated inventory
// in one transaction. The event write is guarded by the version the caller
// read: models.ErrVersionConflict means a concurrent booking won and the whole
// cycle should be retried from a fresh read. A unique-index violation on
// (event_id, user_id) maps to models.ErrDuplicateBooking.
func (r *Repository) CreateWithEvent(ctx context.Context, b *models.Booking, e *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateEventInventory(ctx, tx, e); err != nil {
		return err
	}

	const q = `INSERT INTO bookings (id, event_id, user_id, name, number_of_tickets)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	err = tx.QueryRow(ctx, q, b.EventID, b.UserID, b.Name, b.NumberOfTickets).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.ErrDuplicateBooking
		}
		return err
	}
	return tx.Commit(ctx)
}

// DeleteWithEvent removes the booking and writes the event's restored
// inventory in one transaction, with the same version guard as CreateWithEvent.
func (r *Repository) DeleteWithEvent(ctx context.Context, bookingID uuid.UUID, e *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateEventInventory(ctx, tx, e); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFound("booking", bookingID)
	}
	return tx.Commit(ctx)
}

// Delete removes a booking without touching any event. Used when the event is
// already gone and there is no inventory left to restore.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFound("booking", id)
	}
	return nil
}

func updateEventInventory(ctx context.Context, tx pgx.Tx, e *models.Event) error {
	const q = `UPDATE events SET free_ticket_capacity = $2, booked_tickets_count = $3,
			ticket_alarm = $4, is_sold_out = $5, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $6
		RETURNING version, updated_at`
	err := tx.QueryRow(ctx, q, e.ID, e.FreeTicketCapacity, e.BookedTicketsCount,
		e.TicketAlarm, e.IsSoldOut, e.Version).
		Scan(&e.Version, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrVersionConflict
	}
	return err
}
