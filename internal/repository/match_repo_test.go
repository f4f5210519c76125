package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/repository"
)

func TestCreateActive_CanonicalAndOnce(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	m, created, err := repo.CreateActive(ctx, 7, 3, 7)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(3), m.User1ID)
	assert.Equal(t, uint64(7), m.User2ID)
	assert.Equal(t, uint64(7), m.InitiatorID)
	assert.True(t, m.ChatActive)

	// second caller for the same pair (either order) gets the same row
	again, created, err := repo.CreateActive(ctx, 3, 7, 3)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, uint64(7), again.InitiatorID)

	var count int64
	dbase.Model(&db.Match{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeactivate_AllowsNewMatch(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)
	likes := repository.NewLikeRepository(dbase)

	_, _ = likes.Insert(ctx, 1, 2)
	_, _ = likes.Insert(ctx, 2, 1)
	m, _, err := repo.CreateActive(ctx, 1, 2, 1)
	require.NoError(t, err)
	require.NoError(t, repo.SetRevealed(ctx, m.ID))

	require.NoError(t, repo.Deactivate(ctx, m))

	old, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, old.ChatActive)
	assert.False(t, old.Revealed)
	assert.Nil(t, old.ActivePair)

	var likeCount int64
	dbase.Model(&db.Like{}).Count(&likeCount)
	assert.Equal(t, int64(0), likeCount)

	_, err = repo.GetActiveBetween(ctx, 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	fresh, created, err := repo.CreateActive(ctx, 2, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, m.ID, fresh.ID)
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	a, _, _ := repo.CreateActive(ctx, 1, 2, 1)
	_, _, _ = repo.CreateActive(ctx, 1, 3, 3)
	_, _, _ = repo.CreateActive(ctx, 4, 5, 4)
	require.NoError(t, repo.Deactivate(ctx, a))

	matches, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(3), matches[0].Other(1))
	assert.True(t, matches[0].Has(1))

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "2:9", repository.PairKey(9, 2))
	assert.Equal(t, repository.PairKey(2, 9), repository.PairKey(9, 2))
}
