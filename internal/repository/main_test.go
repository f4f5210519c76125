package repository_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/crushconnect/internal/db"
)

// base is a round UTC instant; sqlite stores times as text, so tests avoid
// sub-second values to keep comparisons predictable.
var base = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// setupTestDB opens an isolated in-memory DB with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func mkUser(t *testing.T, gdb *gorm.DB, u db.User) db.User {
	t.Helper()
	if u.Gender == "" {
		u.Gender = "male"
	}
	if u.SeekingGender == "" {
		u.SeekingGender = "female"
	}
	if u.LastActive.IsZero() {
		u.LastActive = base
	}
	if u.VibeAnswers.Data() == nil {
		u.VibeAnswers = datatypes.NewJSONType(db.VibeAnswers{})
	}
	u.IsActive = true
	require.NoError(t, gdb.Create(&u).Error)
	return u
}
