package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
)

// MatchRepository persists matches. Every lookup relies on the canonical
// user1_id < user2_id ordering produced by CanonicalPair.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CanonicalPair orders two user ids so the smaller one comes first.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// PairKey is the value of matches.active_pair for an active match.
func PairKey(a, b uint64) string {
	u1, u2 := CanonicalPair(a, b)
	return fmt.Sprintf("%d:%d", u1, u2)
}

// CreateActive inserts an active match for the pair unless one already exists.
//
// Behavior:
//   - Unique active_pair guarantees one active match per pair under concurrent callers.
//   - created=false → another caller won; the existing active match is returned.
//
// Example:
//
//	m, created, err := repo.CreateActive(ctx, 7, 3, 3) // stored as user1=3, user2=7
func (r *MatchRepository) CreateActive(ctx context.Context, a, b, initiatorID uint64) (*db.Match, bool, error) {
	u1, u2 := CanonicalPair(a, b)
	key := PairKey(u1, u2)
	match := db.Match{
		User1ID:     u1,
		User2ID:     u2,
		InitiatorID: initiatorID,
		ChatActive:  true,
		ActivePair:  &key,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "active_pair"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create match %s: %w", key, res.Error)
	}

	existing, err := r.GetActiveBetween(ctx, u1, u2)
	if err != nil {
		return nil, false, err
	}
	return existing, res.RowsAffected > 0, nil
}

// GetByID loads a match by id.
func (r *MatchRepository) GetByID(ctx context.Context, id uint64) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("match %d: %w", id, svcErr.ErrNotFound)
		}
		return nil, fmt.Errorf("get match %d: %w", id, err)
	}
	return &match, nil
}

// GetActiveBetween returns the active match for the unordered pair.
func (r *MatchRepository) GetActiveBetween(ctx context.Context, a, b uint64) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("active_pair = ?", PairKey(a, b)).
		First(&match).Error
	if isNotFound(err) {
		return nil, fmt.Errorf("active match %s: %w", PairKey(a, b), svcErr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active match %s: %w", PairKey(a, b), err)
	}
	return &match, nil
}

// Deactivate ends an active match and removes the likes in both directions
// in one transaction, so the pair can like each other again later.
func (r *MatchRepository) Deactivate(ctx context.Context, match *db.Match) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&db.Match{}).
			Where("id = ?", match.ID).
			Updates(map[string]any{
				"chat_active": false,
				"revealed":    false,
				"active_pair": nil,
			}).Error
		if err != nil {
			return fmt.Errorf("deactivate match %d: %w", match.ID, err)
		}
		return deleteLikePair(tx, match.User1ID, match.User2ID)
	})
}

// SetRevealed marks the match as revealed.
func (r *MatchRepository) SetRevealed(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", id).
		Update("revealed", true).Error
	if err != nil {
		return fmt.Errorf("reveal match %d: %w", id, err)
	}
	return nil
}

// ListForUser returns the active matches of a user, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND chat_active = ?", userID, userID, true).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("list matches for %d: %w", userID, err)
	}
	return matches, nil
}
