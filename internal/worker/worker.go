package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/queue"
)

// BookingStore loads the booking a confirmation job refers to.
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// EventStore loads the booked event.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// UserStore loads the booking's user for the recipient address.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EmailLogStore records the delivery outcome.
type EmailLogStore interface {
	Create(ctx context.Context, el *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ConfirmationProcessor processes booking confirmation jobs: resolve the
// booking, render the email, deliver it, and record the outcome.
type ConfirmationProcessor struct {
	bookings BookingStore
	events   EventStore
	users    UserStore
	logs     EmailLogStore
	sender   Sender
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewConfirmationProcessor creates a booking confirmation processor.
func NewConfirmationProcessor(bookings BookingStore, events EventStore, users UserStore,
	logs EmailLogStore, sender Sender, q *queue.Queue, logger *zap.Logger) *ConfirmationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationProcessor{
		bookings: bookings, events: events, users: users,
		logs: logs, sender: sender, queue: q, logger: logger,
	}
}

// Process executes one booking confirmation job. A booking cancelled before
// the job runs is skipped, not retried.
func (p *ConfirmationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBookingConfirmation {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.BookingConfirmationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	b, err := p.bookings.GetByID(ctx, payload.BookingID)
	if models.IsNotFound(err) {
		p.logger.Info("booking gone, skipping confirmation",
			zap.String("booking_id", payload.BookingID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}

	ev, err := p.events.GetByID(ctx, b.EventID)
	if models.IsNotFound(err) {
		p.logger.Info("event gone, skipping confirmation",
			zap.String("event_id", b.EventID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	u, err := p.users.GetByID(ctx, b.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	subject := fmt.Sprintf("Booking confirmed: %s", ev.Title)
	body := renderConfirmation(b, ev, u)

	el := &models.EmailLog{
		BookingID:      b.ID,
		EventID:        ev.ID,
		RecipientEmail: u.Email,
		Subject:        subject,
		Status:         models.EmailStatusPending,
	}
	if err := p.logs.Create(ctx, el); err != nil {
		return fmt.Errorf("create email log: %w", err)
	}

	if err := p.sender.Send(ctx, u.Email, subject, body); err != nil {
		if lerr := p.logs.MarkFailed(ctx, el.ID, err.Error()); lerr != nil {
			p.logger.Error("mark email failed", zap.Error(lerr))
		}
		return fmt.Errorf("send: %w", err)
	}
	if err := p.logs.MarkSent(ctx, el.ID, time.Now()); err != nil {
		p.logger.Error("mark email sent", zap.Error(err))
	}

	p.logger.Info("booking confirmation sent",
		zap.String("booking_id", b.ID.String()), zap.String("recipient", u.Email))
	return nil
}

func renderConfirmation(b *models.Booking, ev *models.Event, u *models.User) string {
	return fmt.Sprintf(
		"Hi %s,\n\nyour booking for %q on %s is confirmed.\n\nTickets: %d\nBooked as: %s\n\nSee you there!\n",
		u.Name, ev.Title, ev.EventDateTime.Format("2006-01-02 15:04"), b.NumberOfTickets, b.Name)
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ConfirmationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("confirmation worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
