package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
)

// Store is the user persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

// OrganizationDirectory answers which organizations a user owns.
type OrganizationDirectory interface {
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
}

// AccountDeleter removes a user account including its organization ownerships.
type AccountDeleter interface {
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UpdateParams are the profile fields a user may change; nil pointers keep
// the current value.
type UpdateParams struct {
	Name      *string
	AvatarURL *string
	Settings  *models.UserSettings
}

// Service manages user profiles and the visibility rules tied to
// organization ownership.
type Service struct {
	store    Store
	orgs     OrganizationDirectory
	accounts AccountDeleter
	logger   *zap.Logger
}

// NewService creates a user service.
func NewService(store Store, orgs OrganizationDirectory, accounts AccountDeleter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, orgs: orgs, accounts: accounts, logger: logger}
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	return s.store.List(ctx)
}

// GetPublic returns the user's profile filtered through their visibility
// settings. A hidden profile is reported as not found.
func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.Settings.Visible {
		return nil, models.NewNotFound("user", id)
	}
	var orgIDs []uuid.UUID
	if u.Settings.ShowOrgs {
		owned, err := s.orgs.ListByOwner(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list owned organizations: %w", err)
		}
		for _, o := range owned {
			orgIDs = append(orgIDs, o.ID)
		}
	}
	p := u.ToPublic(orgIDs)
	return &p, nil
}

// Update changes the user's profile. Going invisible while still owning
// organizations is rejected: owner profiles stay public.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Settings != nil && !p.Settings.Visible && u.Settings.Visible {
		owned, err := s.orgs.ListByOwner(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list owned organizations: %w", err)
		}
		if len(owned) > 0 {
			return nil, models.ErrUserHasOrganizations
		}
	}
	if p.Name != nil && *p.Name != "" {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Settings != nil {
		u.Settings = *p.Settings
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetRole changes the user's role. Only admins reach this through the HTTP
// layer; the super_admin role is never assignable here.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidation("invalid role %q", role)
	}
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user role changed",
		zap.String("user_id", id.String()), zap.String("role", string(role)))
	return u, nil
}

// Delete removes the user's account. Fails before mutating anything when the
// user is the sole owner of any organization.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.accounts.DeleteUser(ctx, id)
}
