// Package testutil wires an AppContext over in-memory SQLite and miniredis
// for service tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/cache"
	"github.com/oggyb/crushconnect/internal/clock"
	"github.com/oggyb/crushconnect/internal/config"
	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/logger"
)

// Base is a round UTC instant tests anchor their clocks on. SQLite stores
// times as text, so sub-second values are avoided.
var Base = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// Env is everything a service test needs.
type Env struct {
	App   *app.AppContext
	DB    *gorm.DB
	Redis *miniredis.Miniredis
	Clock *clock.Manual
}

// New spins up an isolated SQLite DB and miniredis and wires them into an
// AppContext with a manual clock set to Base.
func New(t *testing.T) *Env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbase, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Scheduler.Timezone = "UTC"

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	clk := clock.NewManual(Base)
	appCtx := app.New(dbase, redisCache, logger.Nop()).
		WithClock(clk).
		WithConfig(cfg)

	return &Env{App: appCtx, DB: dbase, Redis: mr, Clock: clk}
}

// User inserts an active user. Empty gender fields default to a
// male-seeking-female profile; zero LastActive defaults to Base.
func (e *Env) User(t *testing.T, u db.User, interests ...string) db.User {
	t.Helper()
	if u.Gender == "" {
		u.Gender = "male"
	}
	if u.SeekingGender == "" {
		u.SeekingGender = "female"
	}
	if u.LastActive.IsZero() {
		u.LastActive = Base
	}
	if u.VibeAnswers.Data() == nil {
		u.VibeAnswers = datatypes.NewJSONType(db.VibeAnswers{})
	}
	u.IsActive = true
	require.NoError(t, e.DB.Create(&u).Error)

	for _, name := range interests {
		var interest db.Interest
		require.NoError(t, e.DB.Where(db.Interest{Name: name}).FirstOrCreate(&interest).Error)
		require.NoError(t, e.DB.Create(&db.UserInterest{UserID: u.ID, InterestID: interest.ID}).Error)
	}
	return u
}

// Vibe builds a JSON vibe column.
func Vibe(answers db.VibeAnswers) datatypes.JSONType[db.VibeAnswers] {
	return datatypes.NewJSONType(answers)
}
