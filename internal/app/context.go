package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/crushconnect/internal/cache"
	"github.com/oggyb/crushconnect/internal/clock"
	"github.com/oggyb/crushconnect/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Clock      clock.Clock
	Config     *config.Config
}

// New creates a new AppContext. Clock defaults to the real UTC clock and
// Config to the environment.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Clock:      clock.Real{},
		Config:     config.New(),
	}
}

// WithClock swaps the clock; tests pin time with clock.Fixed or clock.Manual.
func (a *AppContext) WithClock(c clock.Clock) *AppContext {
	a.Clock = c
	return a
}

// WithConfig swaps the config.
func (a *AppContext) WithConfig(cfg *config.Config) *AppContext {
	a.Config = cfg
	return a
}
