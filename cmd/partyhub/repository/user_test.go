package repository

import (
	"context"
	"testing"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	dept := "IT"
	u := &models.User{PlayerNumber: "123", Name: "Su Wai", Department: &dept, SessionToken: "abc"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetBySessionToken(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Su Wai", got.Name)
	require.NotNil(t, got.Department)
	assert.Equal(t, "IT", *got.Department)

	_, err = repo.GetBySessionToken(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	exists, err := repo.PlayerNumberExists(ctx, "123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SessionTokenExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_DuplicatePlayerNumber(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	createUser(t, repo, "150", "A")

	err := repo.Create(context.Background(), &models.User{PlayerNumber: "150", Name: "B", SessionToken: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_ListSearchAndLimit(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	createUser(t, repo, "101", "Hein Htut")
	createUser(t, repo, "102", "Lin Lat")
	createUser(t, repo, "203", "Zin Zin")

	all, err := repo.List(ctx, models.UserQuery{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Zin Zin", all[0].Name, "newest first")

	found, err := repo.List(ctx, models.UserQuery{Search: "lin", Limit: 20})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "102", found[0].PlayerNumber)

	byNumber, err := repo.List(ctx, models.UserQuery{Search: "20", Limit: 20})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "Zin Zin", byNumber[0].Name)

	limited, err := repo.List(ctx, models.UserQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
