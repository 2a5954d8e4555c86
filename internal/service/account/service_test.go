package account_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/cache"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/enrich"
	"github.com/kindling-app/kindling/internal/notify"
	"github.com/kindling-app/kindling/internal/policy"
	"github.com/kindling-app/kindling/internal/service/account"
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/sms"
)

type accountHarness struct {
	svc     *account.Service
	credits *credits.Service
	db      *gorm.DB
	redis   *miniredis.Miniredis
}

func setupService(t *testing.T) *accountHarness {
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

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger, policy.Default(), enrich.Unavailable{}, notify.Noop{})

	creditSvc := credits.NewService(dbase, logger)
	return &accountHarness{
		svc:     account.NewService(appCtx, cfg, creditSvc, &sms.LogSender{Logger: logger}),
		credits: creditSvc,
		db:      dbase,
		redis:   mr,
	}
}

func signupRequest(email string) account.SignupRequest {
	return account.SignupRequest{
		Email:        email,
		Password:     "hunter2hunter2",
		Name:         "Alice",
		Gender:       "female",
		InterestedIn: "male",
		DateOfBirth:  time.Date(1996, 7, 1, 0, 0, 0, 0, time.UTC),
		City:         "London",
		Phone:        "+447700900001",
	}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)

	user, token, err := h.svc.Signup(ctx, signupRequest("alice@test.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(10), user.CreditBalance)
	// cooldown defaults on for women
	assert.True(t, user.CooldownEnabled)

	// companion rows exist
	var limitsRow db.ActivityLimits
	require.NoError(t, h.db.First(&limitsRow, "user_id = ?", user.ID).Error)

	history, err := h.credits.History(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "signup_bonus", history[0].Reason)

	loggedIn, token, err := h.svc.Login(ctx, "Alice@Test.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, err = h.svc.Login(ctx, "alice@test.com", "wrong")
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)

	underage := signupRequest("kid@test.com")
	underage.DateOfBirth = time.Now().AddDate(-17, 0, 0)
	_, _, err := h.svc.Signup(ctx, underage)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	badGender := signupRequest("who@test.com")
	badGender.Gender = "robot"
	_, _, err = h.svc.Signup(ctx, badGender)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = h.svc.Signup(ctx, signupRequest("alice@test.com"))
	require.NoError(t, err)
	_, _, err = h.svc.Signup(ctx, signupRequest("ALICE@test.com"))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestOTPFlow(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)

	user, _, err := h.svc.Signup(ctx, signupRequest("alice@test.com"))
	require.NoError(t, err)
	assert.False(t, user.IsVerified)

	require.NoError(t, h.svc.RequestOTP(ctx, user.Phone))

	code, err := h.redis.Get("otp:" + user.Phone)
	require.NoError(t, err)
	require.Len(t, code, 6)

	// wrong code leaves the stored one intact
	err = h.svc.VerifyOTP(ctx, user.ID, user.Phone, "000000x")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, h.svc.VerifyOTP(ctx, user.ID, user.Phone, code))

	var stored db.User
	require.NoError(t, h.db.First(&stored, user.ID).Error)
	assert.True(t, stored.IsVerified)

	// codes are single use
	err = h.svc.VerifyOTP(ctx, user.ID, user.Phone, code)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCompleteProfile(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)

	user, _, err := h.svc.Signup(ctx, signupRequest("alice@test.com"))
	require.NoError(t, err)

	height := 170
	profile, err := h.svc.CompleteProfile(ctx, user.ID, account.ProfileRequest{
		Bio:              "hello!",
		Interests:        []string{"hiking", "coffee"},
		Traits:           []string{"kind"},
		RelationshipGoal: "serious",
		HeightCm:         &height,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking", "coffee"}, profile.InterestList())
	// no enrichment backend: embedding simply stays empty
	assert.Empty(t, profile.Embedding)

	// second completion upserts rather than duplicating
	_, err = h.svc.CompleteProfile(ctx, user.ID, account.ProfileRequest{Bio: "updated"})
	require.NoError(t, err)

	stored, err := h.svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", stored.Bio)

	var count int64
	require.NoError(t, h.db.Model(&db.PersonaProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPurchaseAndBoost(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)

	user, _, err := h.svc.Signup(ctx, signupRequest("alice@test.com"))
	require.NoError(t, err)

	balance, err := h.svc.Purchase(ctx, user.ID, 20, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance)

	expiresAt, err := h.svc.Boost(ctx, user.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), expiresAt, 5*time.Second)

	balance, err = h.credits.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)

	var stored db.User
	require.NoError(t, h.db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.BoostExpiresAt)
	assert.True(t, stored.BoostActive(time.Now().UTC()))
}

func TestBanBlocksLogin(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)

	user, _, err := h.svc.Signup(ctx, signupRequest("alice@test.com"))
	require.NoError(t, err)

	require.NoError(t, h.svc.SetBanned(ctx, user.ID, true))
	_, _, err = h.svc.Login(ctx, "alice@test.com", "hunter2hunter2")
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	require.NoError(t, h.svc.SetBanned(ctx, user.ID, false))
	_, _, err = h.svc.Login(ctx, "alice@test.com", "hunter2hunter2")
	assert.NoError(t, err)
}
