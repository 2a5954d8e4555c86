package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateCanonical checks both argument orders collapse onto one
// (min, max) row.
func TestCreateCanonical(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	first, err := repo.CreateCanonical(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), first.User1ID)
	assert.Equal(t, uint64(7), first.User2ID)

	// reversed order lands on the same row
	second, err := repo.CreateCanonical(ctx, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindByPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	created, err := repo.CreateCanonical(ctx, 1, 2)
	require.NoError(t, err)

	for _, pair := range [][2]uint64{{1, 2}, {2, 1}} {
		found, err := repo.FindByPair(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	}

	_, err = repo.FindByPair(ctx, 1, 3)
	assert.Error(t, err)
}

func TestListForUserOrdering(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	older, err := repo.CreateCanonical(ctx, 1, 2)
	require.NoError(t, err)
	newer, err := repo.CreateCanonical(ctx, 1, 3)
	require.NoError(t, err)

	// a message on the older match bumps it to the top
	require.NoError(t, repo.TouchLastMessage(ctx, older.ID, newer.MatchedAt.Add(time.Second)))

	matches, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, older.ID, matches[0].ID)
	assert.Equal(t, newer.ID, matches[1].ID)
}
