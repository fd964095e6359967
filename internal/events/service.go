package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
)

// maxWriteAttempts bounds optimistic-concurrency retries before surfacing the
// conflict to the caller.
const maxWriteAttempts = 3

// Store is the event persistence the service needs.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Event, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrganizationStore resolves the hosting organization.
type OrganizationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// ImageRemover deletes stored images when their referencing event goes away.
type ImageRemover interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateParams are the fields for a new event.
type CreateParams struct {
	OrganizationID    uuid.UUID
	Title             string
	Description       string
	EventDateTime     time.Time
	Location          models.Location
	Price             float64
	MaxTicketCapacity *int
	MaxPerBooking     *int
	ImageID           *uuid.UUID
}

// UpdateParams are the mutable fields of an event; nil pointers keep the
// current value, except capacity/limit fields which are replaced as given.
type UpdateParams struct {
	Title             string
	Description       string
	EventDateTime     time.Time
	Location          models.Location
	Price             float64
	MaxTicketCapacity *int
	MaxPerBooking     *int
}

// Service implements event CRUD on top of the pure inventory rules.
type Service struct {
	store  Store
	orgs   OrganizationStore
	images ImageRemover
	logger *zap.Logger
}

// NewService creates an event service. images may be nil.
func NewService(store Store, orgs OrganizationStore, images ImageRemover, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, orgs: orgs, images: images, logger: logger}
}

// Get returns an event by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all events.
func (s *Service) List(ctx context.Context) ([]*models.Event, error) {
	return s.store.List(ctx)
}

// ListByOrganization returns an organization's events.
func (s *Service) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Event, error) {
	return s.store.ListByOrganization(ctx, orgID)
}

// ListByOwner returns events hosted by organizations the user owns.
func (s *Service) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	return s.store.ListByOwner(ctx, userID)
}

// Create validates and stores a new event. Free capacity starts at max.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Event, error) {
	if _, err := s.orgs.GetByID(ctx, p.OrganizationID); err != nil {
		return nil, err
	}
	if !p.EventDateTime.After(time.Now()) {
		return nil, models.NewValidation("event date and time must be in the future")
	}
	if p.Price < 0 {
		return nil, models.NewValidation("price must not be negative")
	}
	if p.MaxTicketCapacity != nil && *p.MaxTicketCapacity <= 0 {
		return nil, models.NewValidation("max ticket capacity must be positive")
	}
	if p.MaxPerBooking != nil && *p.MaxPerBooking <= 0 {
		return nil, models.NewValidation("max per booking must be positive")
	}

	e := &models.Event{
		OrganizationID: p.OrganizationID,
		Title:          p.Title,
		Description:    p.Description,
		EventDateTime:  p.EventDateTime,
		Location:       p.Location,
		Price:          p.Price,
		MaxPerBooking:  p.MaxPerBooking,
		ImageID:        p.ImageID,
	}
	if p.MaxTicketCapacity != nil {
		capacity := *p.MaxTicketCapacity
		free := capacity
		e.MaxTicketCapacity = &capacity
		e.FreeTicketCapacity = &free
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// Update replaces the event's fields. Changing the capacity recomputes free
// capacity from the booked count; lowering it below already-booked tickets is
// rejected. Retries on concurrent inventory writes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Event, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		e, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if p.MaxTicketCapacity != nil {
			if *p.MaxTicketCapacity < e.BookedTicketsCount {
				return nil, models.NewValidation(
					"max ticket capacity cannot be less than already booked tickets: %d", e.BookedTicketsCount)
			}
			capacity := *p.MaxTicketCapacity
			free := capacity - e.BookedTicketsCount
			e.MaxTicketCapacity = &capacity
			e.FreeTicketCapacity = &free
		} else {
			e.MaxTicketCapacity = nil
			e.FreeTicketCapacity = nil
		}
		e.Title = p.Title
		e.Description = p.Description
		e.EventDateTime = p.EventDateTime
		e.Location = p.Location
		e.Price = p.Price
		e.MaxPerBooking = p.MaxPerBooking
		RefreshAvailability(e)

		err = s.store.Update(ctx, e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, fmt.Errorf("update event: %w", err)
		}
	}
	return nil, models.ErrVersionConflict
}

// Delete removes the event, its bookings, and its image if it has one.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if e.ImageID != nil && s.images != nil {
		if err := s.images.Delete(ctx, *e.ImageID); err != nil {
			s.logger.Warn("event image cleanup failed",
				zap.String("event_id", id.String()), zap.Error(err))
		}
	}
	return nil
}
