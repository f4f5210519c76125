// Command queuectl inspects and repairs the match announcement queue.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/cache"
	"github.com/oggyb/crushconnect/internal/config"
	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/logger"
	"github.com/oggyb/crushconnect/internal/publisher"
	"github.com/oggyb/crushconnect/internal/service/announce"
)

func main() {
	if err := newRootCmd(openScheduler).Execute(); err != nil {
		os.Exit(1)
	}
}

// openScheduler wires a scheduler against the configured database. Redis is
// not needed by any queue command, so the cache is built but never pinged.
func openScheduler(ctx context.Context) (*announce.Scheduler, func(), error) {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.Named("queuectl")

	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	redisCache := cache.NewRedisCache(cfg)
	appCtx := app.New(database, redisCache, log).WithConfig(cfg)

	pub, notifier := publisher.New(ctx, cfg, log)
	_, scheduler, err := announce.Setup(appCtx, pub, notifier)
	if err != nil {
		_ = redisCache.Close()
		return nil, nil, err
	}
	return scheduler, func() { _ = redisCache.Close() }, nil
}
