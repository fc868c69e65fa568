package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

type fakeUserStore struct {
	nextID int64
	users  map[string]core.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[string]core.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u *core.User) (int64, error) {
	u.ID = f.nextID
	f.nextID++
	f.users[u.Username] = *u
	return u.ID, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*core.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]core.User, error) {
	out := make([]core.User, 0, len(f.users))
	for _, u := range f.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	return out, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "s3cret", core.RoleStaff)
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.NotEqual(t, "s3cret", store.users["alice"].PasswordHash, "password must be stored hashed")

	got, err := svc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsEmptyInputs(t *testing.T) {
	svc := NewUserService(newFakeUserStore())

	_, err := svc.Register(context.Background(), "  ", "pw", core.RoleStaff)
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "alice", "", core.RoleStaff)
	assert.Error(t, err)
}
