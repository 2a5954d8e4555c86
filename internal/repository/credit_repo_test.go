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

// TestTryDebitGuard checks the balance guard is part of the UPDATE itself:
// an underfunded debit changes nothing.
func TestTryDebitGuard(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	user := db.User{
		Email: "wallet@test.com", PasswordHash: "x", Name: "W",
		Gender: "male", InterestedIn: "female",
		DateOfBirth:   time.Date(1995, 3, 1, 0, 0, 0, 0, time.UTC),
		CreditBalance: 7,
	}
	require.NoError(t, dbase.Create(&user).Error)

	ok, err := repo.TryDebit(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	// 2 left, 5 requested: rejected, balance untouched
	ok, err = repo.TryDebit(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	balance, err := repo.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)

	// unknown user never debits
	ok, err = repo.TryDebit(ctx, 424242, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreditUnknownUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	err := repo.Credit(ctx, 424242, 5)
	assert.Error(t, err)
}
