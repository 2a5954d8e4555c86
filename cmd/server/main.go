package main

import (
	"context"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/cache"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/enrich"
	"github.com/kindling-app/kindling/internal/logger"
	"github.com/kindling-app/kindling/internal/notify"
	"github.com/kindling-app/kindling/internal/service/account"
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/service/like"
	"github.com/kindling-app/kindling/internal/service/limits"
	"github.com/kindling-app/kindling/internal/service/match"
	"github.com/kindling-app/kindling/internal/service/message"
	"github.com/kindling-app/kindling/internal/sms"
	handlers "github.com/kindling-app/kindling/internal/transport/http"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(
		database,
		redisCache,
		log,
		cfg.Policy,
		enrich.FromConfig(cfg),
		notify.NewFanout(redisCache, log),
	)

	creditSvc := credits.NewService(database, log)
	tracker := limits.NewTracker(appCtx.Policy)
	accountSvc := account.NewService(appCtx, cfg, creditSvc, &sms.LogSender{Logger: log})
	likeSvc := like.NewService(appCtx, creditSvc, tracker)
	matchSvc := match.NewService(appCtx, creditSvc, tracker)
	messageSvc := message.NewService(appCtx, tracker)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	router := handlers.NewRouter(cfg, appCtx, handlers.Services{
		Accounts: accountSvc,
		Credits:  creditSvc,
		Likes:    likeSvc,
		Matches:  matchSvc,
		Messages: messageSvc,
	})

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := router.Run(addr); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
