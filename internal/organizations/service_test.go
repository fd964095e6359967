package organizations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventbuddy/backend/internal/models"
)

// memStore is an in-memory organization store for service tests.
type memStore struct {
	orgs map[uuid.UUID]*models.Organization
}

func newMemStore() *memStore {
	return &memStore{orgs: make(map[uuid.UUID]*models.Organization)}
}

func (s *memStore) Create(_ context.Context, o *models.Organization) error {
	for _, existing := range s.orgs {
		if existing.Name == o.Name {
			return models.ErrNameTaken
		}
	}
	o.ID = uuid.New()
	s.orgs[o.ID] = o
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	o, ok := s.orgs[id]
	if !ok {
		return nil, models.NewNotFound("organization", id)
	}
	clone := *o
	clone.Owners = append([]uuid.UUID(nil), o.Owners...)
	return &clone, nil
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (*models.Organization, error) {
	for _, o := range s.orgs {
		if o.Slug == slug {
			return s.GetByID(context.Background(), o.ID)
		}
	}
	return nil, &models.NotFoundError{Resource: "organization"}
}

func (s *memStore) List(_ context.Context) ([]*models.Organization, error) {
	var list []*models.Organization
	for id := range s.orgs {
		o, _ := s.GetByID(context.Background(), id)
		list = append(list, o)
	}
	return list, nil
}

func (s *memStore) ListByOwner(_ context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	var list []*models.Organization
	for id, o := range s.orgs {
		if o.HasOwner(userID) {
			clone, _ := s.GetByID(context.Background(), id)
			list = append(list, clone)
		}
	}
	return list, nil
}

func (s *memStore) Update(_ context.Context, o *models.Organization) error {
	stored, ok := s.orgs[o.ID]
	if !ok {
		return models.NewNotFound("organization", o.ID)
	}
	owners := stored.Owners
	clone := *o
	clone.Owners = owners
	s.orgs[o.ID] = &clone
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.orgs[id]; !ok {
		return models.NewNotFound("organization", id)
	}
	delete(s.orgs, id)
	return nil
}

func (s *memStore) AddOwner(_ context.Context, orgID, userID uuid.UUID) error {
	o := s.orgs[orgID]
	if !o.HasOwner(userID) {
		o.Owners = append(o.Owners, userID)
	}
	return nil
}

func (s *memStore) RemoveOwner(_ context.Context, orgID, userID uuid.UUID) error {
	o := s.orgs[orgID]
	for i, id := range o.Owners {
		if id == userID {
			if len(o.Owners) == 1 {
				return models.ErrLastOwner
			}
			o.Owners = append(o.Owners[:i], o.Owners[i+1:]...)
			return nil
		}
	}
	return nil
}

// memUsers is an in-memory user store for service tests.
type memUsers struct {
	users   map[uuid.UUID]*models.User
	deleted []uuid.UUID
}

func newMemUsers(ids ...uuid.UUID) *memUsers {
	m := &memUsers{users: make(map[uuid.UUID]*models.User)}
	for _, id := range ids {
		m.users[id] = &models.User{ID: id, Settings: models.DefaultUserSettings()}
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, models.NewNotFound("user", id)
	}
	return u, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return models.NewNotFound("user", id)
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestService(userIDs ...uuid.UUID) (*Service, *memStore, *memUsers) {
	store := newMemStore()
	users := newMemUsers(userIDs...)
	return NewService(store, users, nil, nil, nil), store, users
}

// memBookings records booking-release calls during user deletion.
type memBookings struct {
	released []uuid.UUID
}

func (m *memBookings) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	m.released = append(m.released, userID)
	return nil
}

func TestCreate_SingleOwnerAndSlug(t *testing.T) {
	creator := uuid.New()
	svc, _, users := newTestService(creator)

	// Creator had opted out of visibility before founding the organization.
	users.users[creator].Settings.Visible = false

	o, err := svc.Create(context.Background(), CreateParams{Name: "Münchner Kulturverein"}, creator)
	require.NoError(t, err)
	assert.Equal(t, "muenchner-kulturverein", o.Slug)
	assert.Equal(t, []uuid.UUID{creator}, o.Owners)
	assert.True(t, users.users[creator].Settings.Visible, "owners are always visible")
}

func TestCreate_NameTaken(t *testing.T) {
	creator := uuid.New()
	svc, _, _ := newTestService(creator)

	_, err := svc.Create(context.Background(), CreateParams{Name: "Duplicate"}, creator)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateParams{Name: "Duplicate"}, creator)
	assert.ErrorIs(t, err, models.ErrNameTaken)
}

func TestUpdate_RenameRecomputesSlug(t *testing.T) {
	creator := uuid.New()
	svc, _, _ := newTestService(creator)
	o, err := svc.Create(context.Background(), CreateParams{Name: "Old Name"}, creator)
	require.NoError(t, err)

	newName := "Straßenfest Köln"
	updated, err := svc.Update(context.Background(), o.ID, UpdateParams{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "strassenfest-koeln", updated.Slug)

	// Updating other fields leaves the slug alone.
	website := "https://example.org"
	updated, err = svc.Update(context.Background(), o.ID, UpdateParams{Website: &website})
	require.NoError(t, err)
	assert.Equal(t, "strassenfest-koeln", updated.Slug)
	assert.Equal(t, website, updated.Website)
}

func TestAddOwner_IdempotentAndVisible(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	svc, _, users := newTestService(alice, bob)
	users.users[bob].Settings.Visible = false

	o, err := svc.Create(context.Background(), CreateParams{Name: "Org"}, alice)
	require.NoError(t, err)

	o, err = svc.AddOwner(context.Background(), o.ID, bob)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, o.Owners)
	assert.True(t, users.users[bob].Settings.Visible)

	// Adding again changes nothing.
	o, err = svc.AddOwner(context.Background(), o.ID, bob)
	require.NoError(t, err)
	assert.Len(t, o.Owners, 2)
}

func TestAddOwner_UnknownUser(t *testing.T) {
	alice := uuid.New()
	svc, _, _ := newTestService(alice)
	o, err := svc.Create(context.Background(), CreateParams{Name: "Org"}, alice)
	require.NoError(t, err)

	_, err = svc.AddOwner(context.Background(), o.ID, uuid.New())
	assert.True(t, models.IsNotFound(err))
}

func TestRemoveOwner_LastOwnerRejected(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	svc, store, _ := newTestService(alice, bob)
	o, err := svc.Create(context.Background(), CreateParams{Name: "Org"}, alice)
	require.NoError(t, err)
	_, err = svc.AddOwner(context.Background(), o.ID, bob)
	require.NoError(t, err)

	o, err = svc.RemoveOwner(context.Background(), o.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob}, o.Owners)

	_, err = svc.RemoveOwner(context.Background(), o.ID, bob)
	assert.ErrorIs(t, err, models.ErrLastOwner)

	stored, err := store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob}, stored.Owners, "failed removal must not mutate the owner set")
}

func TestRemoveOwner_AbsentOwnerIsNoop(t *testing.T) {
	alice := uuid.New()
	svc, _, _ := newTestService(alice)
	o, err := svc.Create(context.Background(), CreateParams{Name: "Org"}, alice)
	require.NoError(t, err)

	o, err = svc.RemoveOwner(context.Background(), o.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, o.Owners)
}

func TestDeleteUser_ReleasesOwnerships(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	svc, store, users := newTestService(alice, bob)

	shared, err := svc.Create(context.Background(), CreateParams{Name: "Shared"}, alice)
	require.NoError(t, err)
	_, err = svc.AddOwner(context.Background(), shared.ID, bob)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), alice))
	assert.Equal(t, []uuid.UUID{alice}, users.deleted)

	stored, err := store.GetByID(context.Background(), shared.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob}, stored.Owners)
}

func TestDeleteUser_SoleOwnerBlocksWholeCall(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	svc, store, users := newTestService(alice, bob)

	shared, err := svc.Create(context.Background(), CreateParams{Name: "Shared"}, alice)
	require.NoError(t, err)
	_, err = svc.AddOwner(context.Background(), shared.ID, bob)
	require.NoError(t, err)
	solo, err := svc.Create(context.Background(), CreateParams{Name: "Solo"}, alice)
	require.NoError(t, err)

	err = svc.DeleteUser(context.Background(), alice)
	assert.ErrorIs(t, err, models.ErrLastOwner)

	// Nothing was mutated: alice still owns both organizations and her
	// account still exists.
	assert.Empty(t, users.deleted)
	sharedStored, _ := store.GetByID(context.Background(), shared.ID)
	assert.True(t, sharedStored.HasOwner(alice))
	soloStored, _ := store.GetByID(context.Background(), solo.ID)
	assert.Equal(t, []uuid.UUID{alice}, soloStored.Owners)
}

// racingStore simulates a removal that wins between the service's validation
// read and its own delete.
type racingStore struct {
	*memStore
	other uuid.UUID
	raced bool
}

func (s *racingStore) RemoveOwner(ctx context.Context, orgID, userID uuid.UUID) error {
	if !s.raced {
		s.raced = true
		if err := s.memStore.RemoveOwner(ctx, orgID, s.other); err != nil {
			return err
		}
	}
	return s.memStore.RemoveOwner(ctx, orgID, userID)
}

func TestRemoveOwner_ConcurrentRemovalCannotEmptyOwnerSet(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	store := newMemStore()
	users := newMemUsers(alice, bob)
	racing := &racingStore{memStore: store, other: bob}
	svc := NewService(racing, users, nil, nil, nil)

	o, err := svc.Create(context.Background(), CreateParams{Name: "Org"}, alice)
	require.NoError(t, err)
	_, err = svc.AddOwner(context.Background(), o.ID, bob)
	require.NoError(t, err)

	// Validation sees two owners, but bob is gone by the time the store
	// removes alice. The store refuses instead of emptying the set.
	_, err = svc.RemoveOwner(context.Background(), o.ID, alice)
	assert.ErrorIs(t, err, models.ErrLastOwner)

	stored, err := store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, stored.Owners)
}

func TestDeleteUser_CancelsBookings(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	store := newMemStore()
	users := newMemUsers(alice, bob)
	bookings := &memBookings{}
	svc := NewService(store, users, nil, bookings, nil)

	shared, err := svc.Create(context.Background(), CreateParams{Name: "Shared"}, alice)
	require.NoError(t, err)
	_, err = svc.AddOwner(context.Background(), shared.ID, bob)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), alice))
	assert.Equal(t, []uuid.UUID{alice}, bookings.released)
	assert.Equal(t, []uuid.UUID{alice}, users.deleted)
}

func TestDeleteUser_SoleOwnerLeavesBookingsUntouched(t *testing.T) {
	alice := uuid.New()
	store := newMemStore()
	users := newMemUsers(alice)
	bookings := &memBookings{}
	svc := NewService(store, users, nil, bookings, nil)

	_, err := svc.Create(context.Background(), CreateParams{Name: "Solo"}, alice)
	require.NoError(t, err)

	err = svc.DeleteUser(context.Background(), alice)
	assert.ErrorIs(t, err, models.ErrLastOwner)
	assert.Empty(t, bookings.released)
	assert.Empty(t, users.deleted)
}

func TestDeleteUser_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.DeleteUser(context.Background(), uuid.New())
	assert.True(t, models.IsNotFound(err))
}
