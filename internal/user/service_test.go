package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/parkview-commons/rental-booking-backend/internal/auth"
)

type fakeRepo struct {
	byEmail map[string]*User
	byID    map[string]*User
	seq     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return ErrEmailAlreadyUsed
	}
	f.seq++
	u.ID = fmt.Sprintf("u-%d", f.seq)
	u.CreatedAt = time.Now().UTC()
	stored := *u
	f.byEmail[u.Email] = &stored
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ Filter) ([]*User, int, error) {
	var out []*User
	for _, u := range f.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost)), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), " Resident@Example.com ", "s3cretpass", "Kim")
	require.NoError(t, err)
	assert.Equal(t, "resident@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.True(t, u.IsActive)

	got, err := svc.Login(context.Background(), "resident@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(context.Background(), "resident@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "a@example.com", "s3cretpass", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "a@example.com", "otherpass1", "")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "a@example.com", "short", "")
	assert.Error(t, err)
}

func TestRoleOf_InactiveUser(t *testing.T) {
	svc, repo := newTestService()

	u, err := svc.Register(context.Background(), "a@example.com", "s3cretpass", "")
	require.NoError(t, err)

	repo.byID[u.ID].IsActive = false

	_, err = svc.RoleOf(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestRoleTeamCapable(t *testing.T) {
	assert.False(t, RoleUser.TeamCapable())
	assert.True(t, RoleRental.TeamCapable())
	assert.True(t, RoleAdmin.TeamCapable())
	assert.False(t, Role("ghost").TeamCapable())
}
