package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestUserStoreCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	id, err := store.Create(ctx, &core.User{
		Username:     "alice",
		PasswordHash: "$2a$10$fakehash",
		Role:         core.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	u, err := store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "$2a$10$fakehash", u.PasswordHash)
	assert.Equal(t, core.RoleAdmin, u.Role)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserStoreGetMissingUser(t *testing.T) {
	db := newTestDB(t)
	u, err := NewUserStore(db).GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	_, err := store.Create(ctx, &core.User{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = store.Create(ctx, &core.User{Username: "alice", PasswordHash: "y"})
	require.Error(t, err)
	assert.Equal(t, "create user: operation failed", err.Error())
}

func TestUserStoreListOmitsCredentials(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	_, err := store.Create(ctx, &core.User{Username: "bob", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = store.Create(ctx, &core.User{Username: "alice", PasswordHash: "y", Role: core.RoleAdmin})
	require.NoError(t, err)

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
	assert.Equal(t, core.RoleStaff, users[1].Role)
}
