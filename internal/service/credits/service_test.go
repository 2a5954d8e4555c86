package credits_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/service/credits"
)

// setupService spins up an isolated in-memory SQLite DB with one seeded user
// and wires a ledger service around it.
func setupService(t *testing.T) (*credits.Service, *gorm.DB, uint64) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.Models()...))

	user := db.User{
		Email:        "u1@test.com",
		PasswordHash: "x",
		Name:         "User 1",
		Gender:       "male",
		InterestedIn: "female",
		DateOfBirth:  time.Date(1995, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, dbase.Create(&user).Error)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return credits.NewService(dbase, logger), dbase, user.ID
}

func TestGrantAndConsume(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := setupService(t)

	balance, err := svc.Grant(ctx, userID, 10, "signup_bonus", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	balance, err = svc.Consume(ctx, userID, 5, "superlike", map[string]any{"target_user_id": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance)
}

// TestConsumeInsufficient verifies that an underfunded debit is rejected with
// the structured balance detail and leaves the balance untouched.
func TestConsumeInsufficient(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := setupService(t)

	_, err := svc.Grant(ctx, userID, 3, "signup_bonus", nil)
	require.NoError(t, err)

	_, err = svc.Consume(ctx, userID, 5, "superlike", nil)
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientCredits, appErr.Kind)
	assert.Equal(t, int64(3), appErr.Balance)
	assert.Equal(t, int64(5), appErr.Required)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance)
}

// TestConsumeNeverNegative runs repeated debits until rejection and checks
// the balance lands exactly on zero, never below.
func TestConsumeNeverNegative(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := setupService(t)

	_, err := svc.Grant(ctx, userID, 10, "purchase", nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Consume(ctx, userID, 5, "boost", nil)
		require.NoError(t, err)
	}
	_, err = svc.Consume(ctx, userID, 5, "boost", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientCredits, apperr.KindOf(err))

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestConsumeRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := setupService(t)

	_, err := svc.Consume(ctx, userID, 0, "boost", nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Grant(ctx, userID, -1, "purchase", nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

// TestLedgerReconciles replays the history and checks credits minus debits
// equals the live balance.
func TestLedgerReconciles(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := setupService(t)

	_, err := svc.Grant(ctx, userID, 10, "signup_bonus", nil)
	require.NoError(t, err)
	_, err = svc.Consume(ctx, userID, 5, "superlike", nil)
	require.NoError(t, err)
	_, err = svc.Grant(ctx, userID, 20, "purchase", map[string]any{"reference": "ord-1"})
	require.NoError(t, err)
	_, err = svc.Consume(ctx, userID, 1, "ai_search", nil)
	require.NoError(t, err)

	history, err := svc.History(ctx, userID, 50)
	require.NoError(t, err)
	require.Len(t, history, 4)

	var net int64
	for _, row := range history {
		switch row.Direction {
		case db.DirectionCredit:
			net += row.Amount
		case db.DirectionDebit:
			net -= row.Amount
		default:
			t.Fatalf("unexpected direction %q", row.Direction)
		}
		assert.NotEmpty(t, row.Reference)
	}

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, balance, net)
}
