package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDefaults(t *testing.T) {
	for _, k := range []string{
		"QUOTA_MALE_ON_GRID", "QUOTA_FEMALE_MESSAGES",
		"COOLDOWN_HOURS", "SUPERLIKE_COST", "MAX_DISTANCE_KM",
	} {
		t.Setenv(k, "")
	}

	cfg := New()
	require.NotNil(t, cfg.Policy)
	assert.Equal(t, 1, cfg.Policy.QuotaFor("male").OnGridLikes)
	assert.Equal(t, 10, cfg.Policy.QuotaFor("female").Messages)
	assert.Equal(t, 10*time.Hour, cfg.Policy.CooldownDuration)
	assert.Equal(t, int64(5), cfg.Policy.SuperlikeCost)
	assert.Equal(t, 100.0, cfg.Policy.MaxDistanceKm)
}

func TestPolicyEnvOverrides(t *testing.T) {
	t.Setenv("QUOTA_MALE_ON_GRID", "2")
	t.Setenv("QUOTA_FEMALE_MESSAGES", "20")
	t.Setenv("COOLDOWN_HOURS", "6")
	t.Setenv("SUPERLIKE_COST", "7")
	t.Setenv("MAX_DISTANCE_KM", "250")

	cfg := New()
	assert.Equal(t, 2, cfg.Policy.QuotaFor("male").OnGridLikes)
	assert.Equal(t, 20, cfg.Policy.QuotaFor("female").Messages)
	assert.Equal(t, 6*time.Hour, cfg.Policy.CooldownDuration)
	assert.Equal(t, int64(7), cfg.Policy.SuperlikeCost)
	assert.Equal(t, 250.0, cfg.Policy.MaxDistanceKm)

	// untouched values keep their defaults
	assert.Equal(t, 4, cfg.Policy.QuotaFor("male").OffGridLikes)
	assert.Equal(t, 12*time.Hour, cfg.Policy.ResetWindow)
}

func TestPolicyRejectsGarbageValues(t *testing.T) {
	t.Setenv("QUOTA_MALE_ON_GRID", "not-a-number")
	t.Setenv("SUPERLIKE_COST", "-3")
	t.Setenv("MAX_DISTANCE_KM", "0")

	cfg := New()
	assert.Equal(t, 1, cfg.Policy.QuotaFor("male").OnGridLikes)
	assert.Equal(t, int64(5), cfg.Policy.SuperlikeCost)
	assert.Equal(t, 100.0, cfg.Policy.MaxDistanceKm)
}
