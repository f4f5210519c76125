package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/cache"
	"github.com/oggyb/crushconnect/internal/config"
	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/logger"
	"github.com/oggyb/crushconnect/internal/publisher"
	"github.com/oggyb/crushconnect/internal/server"
	"github.com/oggyb/crushconnect/internal/service/announce"
	"github.com/oggyb/crushconnect/internal/service/coins"
	"github.com/oggyb/crushconnect/internal/service/discovery"
	"github.com/oggyb/crushconnect/internal/service/matching"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB (fails fast when unreachable)
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	appCtx := app.New(database, redisCache, log).WithConfig(cfg)

	if cfg.App.ENV == "development" {
		count, _ := strconv.Atoi(os.Getenv("SEED_USERS"))
		if count <= 0 {
			count = 40
		}
		if err := db.SeedTestData(database, count); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	pub, notifier := publisher.New(ctx, cfg, log)
	queue, scheduler, err := announce.Setup(appCtx, pub, notifier)
	if err != nil {
		log.Error("invalid scheduler config", "err", err)
		os.Exit(1)
	}

	ledger := coins.NewLedger(appCtx)
	engine := matching.NewEngine(appCtx, queue).WithRewarder(ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartGRPCServer(gctx, cfg, log, discovery.NewRegistrar(appCtx, engine, ledger))
	})
	g.Go(func() error {
		return server.StartHTTPServer(gctx, cfg, log, server.NewHTTPHandler(cfg, log, scheduler))
	})
	if cfg.Scheduler.Enabled {
		g.Go(func() error { return scheduler.Run(gctx) })
	} else {
		log.Info("announcement scheduler disabled")
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
