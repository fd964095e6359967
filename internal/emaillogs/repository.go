package emaillogs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbuddy/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending email log entry.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, booking_id, event_id, recipient_email, subject, status)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, el.BookingID, el.EventID, el.RecipientEmail,
		el.Subject, string(el.Status)).Scan(&el.ID, &el.CreatedAt)
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = $2, sent_at = $3, error_message = NULL WHERE id = $1`,
		id, string(models.EmailStatusSent), sentAt)
	return err
}

// MarkFailed records a delivery failure with its error message.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = $2, error_message = $3 WHERE id = $1`,
		id, string(models.EmailStatusFailed), errMsg)
	return err
}

// GetByID returns a single email log entry.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	const q = `SELECT id, booking_id, event_id, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs WHERE id = $1`
	var el models.EmailLog
	var subject, errMsg *string
	err := r.pool.QueryRow(ctx, q, id).Scan(&el.ID, &el.BookingID, &el.EventID, &el.RecipientEmail,
		&subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFound("email log", id)
	}
	if err != nil {
		return nil, err
	}
	if subject != nil {
		el.Subject = *subject
	}
	if errMsg != nil {
		el.ErrorMessage = *errMsg
	}
	return &el, nil
}

// ListByEvent returns email logs for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, booking_id, event_id, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE event_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.BookingID, &el.EventID, &el.RecipientEmail,
			&subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
