package organizations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
)

// Store is the organization persistence the service needs. AddOwner is
// idempotent and RemoveOwner tolerates absent owners, so cascade steps can be
// replayed safely. RemoveOwner fails with ErrLastOwner rather than empty the
// owner set, closing the window between the service's validation and the
// delete.
type Store interface {
	Create(ctx context.Context, o *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	Update(ctx context.Context, o *models.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddOwner(ctx context.Context, orgID, userID uuid.UUID) error
	RemoveOwner(ctx context.Context, orgID, userID uuid.UUID) error
}

// UserStore resolves and mutates users referenced by the owner graph.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageRemover deletes stored images when their referencing organization goes away.
type ImageRemover interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingReleaser cancels a user's bookings so event inventory is restored
// before the account goes away.
type BookingReleaser interface {
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

// CreateParams are the fields for a new organization.
type CreateParams struct {
	Name        string
	Description string
	Website     string
	Location    models.Location
	Contact     models.Contact
	ImageID     *uuid.UUID
}

// UpdateParams are the mutable organization fields; nil pointers keep the
// current value.
type UpdateParams struct {
	Name        *string
	Description *string
	Website     *string
	Location    *models.Location
	Contact     *models.Contact
}

// Service maintains the ownership graph between organizations and users and
// its central invariant: an organization never drops below one owner.
type Service struct {
	store    Store
	users    UserStore
	images   ImageRemover
	bookings BookingReleaser
	logger   *zap.Logger
}

// NewService creates an organization service. images and bookings may be nil.
func NewService(store Store, users UserStore, images ImageRemover, bookings BookingReleaser, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, images: images, bookings: bookings, logger: logger}
}

// Get returns an organization by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return s.store.GetByID(ctx, id)
}

// GetBySlug returns an organization by its slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return s.store.GetBySlug(ctx, slug)
}

// List returns all organizations.
func (s *Service) List(ctx context.Context) ([]*models.Organization, error) {
	return s.store.List(ctx)
}

// ListByOwner returns the organizations a user owns.
func (s *Service) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	return s.store.ListByOwner(ctx, userID)
}

// Create stores a new organization with the creator as its single owner.
func (s *Service) Create(ctx context.Context, p CreateParams, creatorID uuid.UUID) (*models.Organization, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, models.NewValidation("organization name must not be empty")
	}

	o := &models.Organization{
		Name:        p.Name,
		Slug:        ComputeSlug(p.Name),
		Owners:      []uuid.UUID{creatorID},
		Description: p.Description,
		Website:     p.Website,
		Location:    p.Location,
		Contact:     p.Contact,
		ImageID:     p.ImageID,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.markOwnerVisible(ctx, creator)
	return o, nil
}

// Update changes organization fields. A name change recomputes the slug
// before persisting; the slug is never set independently.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Organization, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil && *p.Name != "" {
		o.Name = *p.Name
		o.Slug = ComputeSlug(*p.Name)
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.Website != nil {
		o.Website = *p.Website
	}
	if p.Location != nil {
		o.Location = *p.Location
	}
	if p.Contact != nil {
		o.Contact = *p.Contact
	}
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AddOwner adds a user to the organization's owner set and marks the user
// visible. Idempotent when the user already owns the organization.
func (s *Service) AddOwner(ctx context.Context, orgID, userID uuid.UUID) (*models.Organization, error) {
	o, err := s.store.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !o.HasOwner(userID) {
		if err := s.store.AddOwner(ctx, orgID, userID); err != nil {
			return nil, fmt.Errorf("add owner: %w", err)
		}
		o.Owners = append(o.Owners, userID)
	}
	s.markOwnerVisible(ctx, user)
	return o, nil
}

// RemoveOwner removes a user from the owner set. Fails with ErrLastOwner when
// the resulting set would be empty; the organization is left unchanged.
// Removing a user who is not an owner is a no-op.
func (s *Service) RemoveOwner(ctx context.Context, orgID, userID uuid.UUID) (*models.Organization, error) {
	o, err := s.store.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !o.HasOwner(userID) {
		return o, nil
	}
	if len(o.Owners) <= 1 {
		return nil, models.ErrLastOwner
	}
	if err := s.store.RemoveOwner(ctx, orgID, userID); err != nil {
		return nil, fmt.Errorf("remove owner: %w", err)
	}
	return s.store.GetByID(ctx, orgID)
}

// Delete removes the organization. Owner back-references, events, and their
// bookings are released with it; the organization's image is cleaned up best
// effort. Owners that vanished concurrently need no special handling since
// the back-reference lives in the owner rows themselves.
func (s *Service) Delete(ctx context.Context, orgID uuid.UUID) error {
	o, err := s.store.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, orgID); err != nil {
		return err
	}
	if o.ImageID != nil && s.images != nil {
		if err := s.images.Delete(ctx, *o.ImageID); err != nil {
			s.logger.Warn("organization image cleanup failed",
				zap.String("organization_id", orgID.String()), zap.Error(err))
		}
	}
	return nil
}

// DeleteUser removes the user after releasing every organization ownership
// and cancelling the user's bookings, so each event's inventory is restored.
// If any owned organization would be left without owners the whole call fails
// with ErrLastOwner before anything is mutated; the caller must reassign or
// delete that organization first.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	owned, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("list owned organizations: %w", err)
	}
	for _, o := range owned {
		if len(o.Owners) <= 1 {
			return fmt.Errorf("organization %s (%s): %w", o.Name, o.ID, models.ErrLastOwner)
		}
	}
	if s.bookings != nil {
		if err := s.bookings.DeleteAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("cancel bookings: %w", err)
		}
	}
	for _, o := range owned {
		if err := s.store.RemoveOwner(ctx, o.ID, userID); err != nil {
			return fmt.Errorf("remove owner from %s: %w", o.ID, err)
		}
	}
	return s.users.Delete(ctx, userID)
}

// Owning an organization makes a profile public.
func (s *Service) markOwnerVisible(ctx context.Context, user *models.User) {
	if user.Settings.Visible {
		return
	}
	user.Settings.Visible = true
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("mark owner visible failed",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}
