package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/crushconnect/internal/db"
)

// PassWindow is the trailing window in which passes count towards exclusion.
const PassWindow = 3 * 24 * time.Hour

// PassRepository stores one row per (user, target) pair with its two most
// recent pass times.
type PassRepository struct {
	db *gorm.DB
}

// NewPassRepository creates a new repository bound to the given DB connection.
func NewPassRepository(database *gorm.DB) *PassRepository {
	return &PassRepository{db: database}
}

// inWindowSQL counts the in-window passes of the row aliased as alias.
// It takes the cutoff twice.
func inWindowSQL(alias string) string {
	return fmt.Sprintf(
		"(CASE WHEN %[1]s.last_passed_at > ? THEN 1 ELSE 0 END + CASE WHEN %[1]s.prev_passed_at > ? THEN 1 ELSE 0 END)",
		alias,
	)
}

// Record registers that user passed target at now.
//
// Behavior:
//   - First pass → row inserted with pass_count = 1, no previous pass.
//   - Later passes shift last_passed_at into prev_passed_at and bump pass_count.
//
// prev_passed_at is assigned before last_passed_at so MySQL reads the old value.
func (r *PassRepository) Record(ctx context.Context, userID, targetID uint64, now time.Time) error {
	pass := db.Pass{
		UserID:       userID,
		TargetID:     targetID,
		PassCount:    1,
		LastPassedAt: now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "target_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "prev_passed_at"}, Value: gorm.Expr("passes.last_passed_at")},
				{Column: clause.Column{Name: "pass_count"}, Value: gorm.Expr("passes.pass_count + 1")},
				{Column: clause.Column{Name: "last_passed_at"}, Value: now},
			},
		}).
		Create(&pass).Error
	if err != nil {
		return fmt.Errorf("record pass %d→%d: %w", userID, targetID, err)
	}
	return nil
}

// CountInWindow returns how many of user's passes on target fall within the
// window ending at now, capped at 2.
func (r *PassRepository) CountInWindow(ctx context.Context, userID, targetID uint64, now time.Time) (int, error) {
	var pass db.Pass
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		First(&pass).Error
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get pass %d→%d: %w", userID, targetID, err)
	}
	return pass.InWindow(now.Add(-PassWindow)), nil
}
