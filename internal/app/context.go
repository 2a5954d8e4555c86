package app

import (
	"log/slog"

	"github.com/kindling-app/kindling/internal/cache"
	"github.com/kindling-app/kindling/internal/enrich"
	"github.com/kindling-app/kindling/internal/notify"
	"github.com/kindling-app/kindling/internal/policy"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Policy     *policy.Policy
	Enricher   enrich.Enricher
	Notifier   notify.Dispatcher
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, pol *policy.Policy, enricher enrich.Enricher, notifier notify.Dispatcher) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Policy:     pol,
		Enricher:   enricher,
		Notifier:   notifier,
	}
}
