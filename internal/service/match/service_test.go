package match_test

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
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/service/limits"
	"github.com/kindling-app/kindling/internal/service/match"
)

type matchHarness struct {
	svc     *match.Service
	credits *credits.Service
	db      *gorm.DB
}

func setupService(t *testing.T) *matchHarness {
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
	return &matchHarness{
		svc:     match.NewService(appCtx, creditSvc, limits.NewTracker(appCtx.Policy)),
		credits: creditSvc,
		db:      dbase,
	}
}

type seedOpts struct {
	gender       string
	interestedIn string
	birthYear    int
	city         string
	lat, lon     float64
	incognito    bool
	banned       bool
	interests    []string
	boostUntil   time.Time
}

func (h *matchHarness) seedUser(t *testing.T, name string, opts seedOpts) *db.User {
	t.Helper()
	if opts.birthYear == 0 {
		opts.birthYear = 1995
	}
	lat, lon := opts.lat, opts.lon
	user := &db.User{
		Email:        name + "@test.com",
		PasswordHash: "x",
		Name:         name,
		Gender:       opts.gender,
		InterestedIn: opts.interestedIn,
		DateOfBirth:  time.Date(opts.birthYear, 3, 1, 0, 0, 0, 0, time.UTC),
		City:         opts.city,
		Latitude:     &lat,
		Longitude:    &lon,
		IsIncognito:  opts.incognito,
		IsBanned:     opts.banned,
	}
	if !opts.boostUntil.IsZero() {
		user.BoostExpiresAt = &opts.boostUntil
	}
	require.NoError(t, h.db.Create(user).Error)

	if len(opts.interests) > 0 {
		require.NoError(t, h.db.Create(&db.PersonaProfile{
			UserID:    user.ID,
			Interests: db.EncodeList(opts.interests),
		}).Error)
	}
	return user
}

func onGridResults(t *testing.T, h *matchHarness, userID uint64, req match.Request) []match.Candidate {
	t.Helper()
	on := true
	req.IsOnGrid = &on
	result, err := h.svc.Search(context.Background(), userID, req)
	require.NoError(t, err)
	return result.OnGrid
}

func resultIDs(items []match.Candidate) []uint64 {
	ids := make([]uint64, len(items))
	for i := range items {
		ids[i] = items[i].UserID
	}
	return ids
}

// TestSearchGenderCompatibility: candidates must match the seeker's
// preference and want the seeker's gender back.
func TestSearchGenderCompatibility(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	alice := h.seedUser(t, "alice", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0})
	bi := h.seedUser(t, "bi", seedOpts{gender: "female", interestedIn: "both", lat: 51.6, lon: 0})
	// wants women, so she must not see bob and he must not see her
	gay := h.seedUser(t, "gay", seedOpts{gender: "female", interestedIn: "female", lat: 51.6, lon: 0})
	// another man is out for a male seeker who wants women
	h.seedUser(t, "carl", seedOpts{gender: "male", interestedIn: "female", lat: 51.6, lon: 0})

	ids := resultIDs(onGridResults(t, h, bob.ID, match.Request{Limit: intPtr(10)}))
	assert.ElementsMatch(t, []uint64{alice.ID, bi.ID}, ids)
	assert.NotContains(t, ids, gay.ID)
}

func TestSearchExcludesLikedBlockedAndHidden(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	liked := h.seedUser(t, "liked", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0})
	blocker := h.seedUser(t, "blocker", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0})
	h.seedUser(t, "hidden", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0, incognito: true})
	h.seedUser(t, "banned", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0, banned: true})
	visible := h.seedUser(t, "visible", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0})

	require.NoError(t, h.db.Create(&db.Like{LikerID: bob.ID, LikedID: liked.ID, IsOnGrid: true}).Error)
	require.NoError(t, h.db.Create(&db.Block{BlockerID: blocker.ID, BlockedID: bob.ID}).Error)

	ids := resultIDs(onGridResults(t, h, bob.ID, match.Request{Limit: intPtr(10)}))
	assert.Equal(t, []uint64{visible.ID}, ids)
}

// TestSearchDistanceCutoff: beyond the radius a candidate disappears
// entirely rather than ranking lower.
func TestSearchDistanceCutoff(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	near := h.seedUser(t, "near", seedOpts{gender: "female", interestedIn: "male", lat: 52.0, lon: 0})
	far := h.seedUser(t, "far", seedOpts{gender: "female", interestedIn: "male", lat: 53.5, lon: 0})

	// default 100km radius: ~55km in, ~220km out
	ids := resultIDs(onGridResults(t, h, bob.ID, match.Request{Limit: intPtr(10)}))
	assert.Equal(t, []uint64{near.ID}, ids)

	// widening the radius brings the far candidate back
	wide := 500.0
	ids = resultIDs(onGridResults(t, h, bob.ID, match.Request{
		Limit:   intPtr(10),
		Filters: match.Filters{MaxDistanceKm: &wide},
	}))
	assert.ElementsMatch(t, []uint64{near.ID, far.ID}, ids)
}

func TestSearchAgeFilter(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	young := h.seedUser(t, "young", seedOpts{gender: "female", interestedIn: "male", birthYear: 2004, lat: 51.6, lon: 0})
	h.seedUser(t, "older", seedOpts{gender: "female", interestedIn: "male", birthYear: 1980, lat: 51.6, lon: 0})

	ageMax := 30
	ids := resultIDs(onGridResults(t, h, bob.ID, match.Request{
		Limit:   intPtr(10),
		Filters: match.Filters{AgeMax: &ageMax},
	}))
	assert.Equal(t, []uint64{young.ID}, ids)
}

// TestSearchRanking: higher interest overlap scores higher; the percentage
// stays inside [1, 99].
func TestSearchRanking(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{
		gender: "male", interestedIn: "female", lat: 51.5, lon: 0,
		interests: []string{"hiking", "coffee"},
	})
	best := h.seedUser(t, "best", seedOpts{
		gender: "female", interestedIn: "male", lat: 51.6, lon: 0,
		interests: []string{"hiking", "coffee"},
	})
	worst := h.seedUser(t, "worst", seedOpts{
		gender: "female", interestedIn: "male", lat: 51.6, lon: 0,
		interests: []string{"rugby"},
	})

	results := onGridResults(t, h, bob.ID, match.Request{Limit: intPtr(10)})
	require.Len(t, results, 2)
	assert.Equal(t, best.ID, results[0].UserID)
	assert.Equal(t, worst.ID, results[1].UserID)
	for _, cand := range results {
		assert.GreaterOrEqual(t, cand.MatchPercentage, 1)
		assert.LessOrEqual(t, cand.MatchPercentage, 99)
	}
	assert.Greater(t, results[0].MatchPercentage, results[1].MatchPercentage)
}

// TestSearchBoostRanksFirst: an active boost outranks a better score; an
// expired boost falls back to score order.
func TestSearchBoostRanksFirst(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{
		gender: "male", interestedIn: "female", lat: 51.5, lon: 0,
		interests: []string{"hiking", "coffee"},
	})
	organic := h.seedUser(t, "organic", seedOpts{
		gender: "female", interestedIn: "male", lat: 51.6, lon: 0,
		interests: []string{"hiking", "coffee"},
	})
	boosted := h.seedUser(t, "boosted", seedOpts{
		gender: "female", interestedIn: "male", lat: 51.6, lon: 0,
		interests:  []string{"rugby"},
		boostUntil: time.Now().UTC().Add(20 * time.Minute),
	})
	lapsed := h.seedUser(t, "lapsed", seedOpts{
		gender: "female", interestedIn: "male", lat: 51.6, lon: 0,
		interests:  []string{"rugby"},
		boostUntil: time.Now().UTC().Add(-time.Minute),
	})

	results := onGridResults(t, h, bob.ID, match.Request{Limit: intPtr(10)})
	require.Len(t, results, 3)

	// the live boost wins despite the lower score
	assert.Equal(t, boosted.ID, results[0].UserID)
	assert.True(t, results[0].Boosted)
	assert.Greater(t, results[1].MatchPercentage, results[0].MatchPercentage)

	// the expired boost carries no privilege
	assert.Equal(t, organic.ID, results[1].UserID)
	assert.Equal(t, lapsed.ID, results[2].UserID)
	assert.False(t, results[2].Boosted)
}

// TestOnGridReasonAlwaysPresent: without any enrichment backend every
// on-grid result still carries a human-readable reason.
func TestOnGridReasonAlwaysPresent(t *testing.T) {
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	h.seedUser(t, "alice", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0})

	results := onGridResults(t, h, bob.ID, match.Request{Limit: intPtr(10)})
	require.NotEmpty(t, results)
	for _, cand := range results {
		assert.NotEmpty(t, cand.MatchReason)
	}
}

// TestChargeOnlyWithResults: the AI-search fee applies to a successful
// on-grid query only, and never when nothing came back.
func TestChargeOnlyWithResults(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	h.seedUser(t, "alice", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0, city: "London"})

	_, err := h.credits.Grant(ctx, bob.ID, 5, "purchase", nil)
	require.NoError(t, err)

	on := true
	result, err := h.svc.Search(ctx, bob.ID, match.Request{
		Query:         "someone outdoorsy",
		IsOnGrid:      &on,
		ChargeCredits: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.OnGrid)
	require.NotNil(t, result.CreditBalance)
	assert.Equal(t, int64(4), *result.CreditBalance)

	// empty result set: no charge
	nowhere := "Atlantis"
	result, err = h.svc.Search(ctx, bob.ID, match.Request{
		Query:         "someone outdoorsy",
		IsOnGrid:      &on,
		ChargeCredits: true,
		Filters:       match.Filters{City: &nowhere},
	})
	require.NoError(t, err)
	assert.Empty(t, result.OnGrid)
	assert.Nil(t, result.CreditBalance)

	balance, err := h.credits.Balance(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), balance)
}

// TestChargeFailureDiscardsResults: an underfunded wallet yields the credit
// error, not a free result set.
func TestChargeFailureDiscardsResults(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	h.seedUser(t, "alice", seedOpts{gender: "female", interestedIn: "male", lat: 51.6, lon: 0})

	on := true
	result, err := h.svc.Search(ctx, bob.ID, match.Request{
		Query:         "someone outdoorsy",
		IsOnGrid:      &on,
		ChargeCredits: true,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientCredits, apperr.KindOf(err))
	assert.Nil(t, result)
}

func TestOffGridRefreshReplaysLastSearch(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	bob := h.seedUser(t, "bob", seedOpts{gender: "male", interestedIn: "female", lat: 51.5, lon: 0})
	h.seedUser(t, "alice", seedOpts{gender: "female", interestedIn: "male", birthYear: 2004, lat: 51.6, lon: 0})
	h.seedUser(t, "dora", seedOpts{gender: "female", interestedIn: "male", birthYear: 1980, lat: 51.6, lon: 0})

	ageMax := 30
	_, err := h.svc.Search(ctx, bob.ID, match.Request{
		Filters: match.Filters{AgeMax: &ageMax},
	})
	require.NoError(t, err)

	refreshed, err := h.svc.OffGridRefresh(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.OnGrid)
	require.Len(t, refreshed.OffGrid, 1)

	// the recorded age filter still applies on replay
	assert.Equal(t, "alice", refreshed.OffGrid[0].Name)
	assert.Nil(t, refreshed.CreditBalance)
}

func intPtr(n int) *int { return &n }
