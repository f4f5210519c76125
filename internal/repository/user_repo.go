package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
)

// CandidatePoolSize caps how many rows ListCandidates loads before scoring.
const CandidatePoolSize = 100

// UserRepository provides profile and interest reads/writes.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetUser loads a user by id. Missing users wrap errors.ErrNotFound.
func (r *UserRepository) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user %d: %w", id, svcErr.ErrNotFound)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// UpdateUser applies a partial update. Keys are column names.
func (r *UserRepository) UpdateUser(ctx context.Context, id uint64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, svcErr.ErrNotFound)
	}
	return nil
}

// TouchLastActive bumps last_active for ranking recency.
func (r *UserRepository) TouchLastActive(ctx context.Context, id uint64, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("last_active", now).Error
}

// GetActiveUserIDs returns ids of every active, non-banned user.
func (r *UserRepository) GetActiveUserIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("is_active = ? AND is_banned = ?", true, false).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}

// GetUserInterests returns the interest names of a user, sorted by name.
func (r *UserRepository) GetUserInterests(ctx context.Context, id uint64) ([]string, error) {
	byUser, err := r.GetInterestsForMany(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	return byUser[id], nil
}

// GetInterestsForMany batch-loads interests for several users in one query.
// Users without interests are absent from the map.
func (r *UserRepository) GetInterestsForMany(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		UserID uint64
		Name   string
	}
	err := r.db.WithContext(ctx).
		Table("user_interests ui").
		Select("ui.user_id, i.name").
		Joins("JOIN interests i ON i.id = ui.interest_id").
		Where("ui.user_id IN ?", ids).
		Order("ui.user_id, i.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Name)
	}
	return out, nil
}

// SetUserInterests replaces a user's interests, creating catalog entries as needed.
func (r *UserRepository) SetUserInterests(ctx context.Context, id uint64, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&db.UserInterest{}).Error; err != nil {
			return fmt.Errorf("clear interests of %d: %w", id, err)
		}
		if len(names) == 0 {
			return nil
		}

		catalog := make([]db.Interest, 0, len(names))
		for _, n := range names {
			catalog = append(catalog, db.Interest{Name: n})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&catalog).Error; err != nil {
			return fmt.Errorf("create interests: %w", err)
		}

		var interestIDs []uint64
		if err := tx.Model(&db.Interest{}).Where("name IN ?", names).Pluck("id", &interestIDs).Error; err != nil {
			return fmt.Errorf("resolve interests: %w", err)
		}
		links := make([]db.UserInterest, 0, len(interestIDs))
		for _, iid := range interestIDs {
			links = append(links, db.UserInterest{UserID: id, InterestID: iid})
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("link interests of %d: %w", id, err)
		}
		return nil
	})
}

// CandidateFilters are optional exact-match restrictions; empty means unrestricted.
type CandidateFilters struct {
	Campus     string `json:"campus,omitempty"`
	Department string `json:"department,omitempty"`
	Year       string `json:"year,omitempty"`
}

// CandidateRow is a candidate profile plus the viewer-relative signals the ranker needs.
type CandidateRow struct {
	db.User   `gorm:"embedded"`
	LikedYou  int
	PassCount int
}

// ListCandidates returns the pre-ordered candidate pool for viewer.
//
// Behavior:
//   - Excludes self, inactive/banned users and everyone the viewer already liked.
//   - Excludes targets the viewer passed ≥2 times within PassWindow (hard exclusion).
//   - Symmetric gender filter: viewer seeks candidate AND candidate seeks viewer ("any" matches all).
//   - Optional exact filters on campus, department, year.
//   - Ordered by liked_you DESC, last_active DESC; capped at CandidatePoolSize.
//   - PassCount is the in-window count (0 or 1 after exclusion).
func (r *UserRepository) ListCandidates(
	ctx context.Context,
	viewer *db.User,
	filters CandidateFilters,
	now time.Time,
) ([]CandidateRow, error) {
	cutoff := now.Add(-PassWindow)

	query := r.db.WithContext(ctx).
		Table("users u").
		Select(`u.*,
			CASE WHEN EXISTS (
				SELECT 1 FROM likes lk WHERE lk.liker_id = u.id AND lk.liked_id = ?
			) THEN 1 ELSE 0 END AS liked_you,
			COALESCE((
				SELECT `+inWindowSQL("p")+` FROM passes p
				WHERE p.user_id = ? AND p.target_id = u.id
			), 0) AS pass_count`, viewer.ID, cutoff, cutoff, viewer.ID).
		Where("u.id <> ? AND u.is_active = ? AND u.is_banned = ?", viewer.ID, true, false).
		Where("NOT EXISTS (SELECT 1 FROM likes l WHERE l.liker_id = ? AND l.liked_id = u.id)", viewer.ID).
		Where(`NOT EXISTS (
			SELECT 1 FROM passes p2
			WHERE p2.user_id = ? AND p2.target_id = u.id
			  AND p2.prev_passed_at > ?
		)`, viewer.ID, cutoff).
		Where("(LOWER(?) = ? OR LOWER(u.gender) = LOWER(?))", viewer.SeekingGender, db.SeekAny, viewer.SeekingGender).
		Where("(LOWER(u.seeking_gender) = ? OR LOWER(u.seeking_gender) = LOWER(?))", db.SeekAny, viewer.Gender)

	if filters.Campus != "" {
		query = query.Where("u.campus = ?", filters.Campus)
	}
	if filters.Department != "" {
		query = query.Where("u.department = ?", filters.Department)
	}
	if filters.Year != "" {
		query = query.Where("u.year = ?", filters.Year)
	}

	var rows []CandidateRow
	err := query.
		Order("liked_you DESC, u.last_active DESC").
		Limit(CandidatePoolSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list candidates for %d: %w", viewer.ID, err)
	}
	return rows, nil
}
