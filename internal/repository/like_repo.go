package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/utils/pagination"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to one-directional likes between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Insert records that liker liked liked.
//
// Behavior:
//   - If the (liker_id, liked_id) pair exists → no-op, created=false.
//   - If it doesn't exist → a new row is inserted with the next sequence id.
//   - The unique pair index collapses concurrent duplicate submissions.
//
// Example:
//
//	repo.Insert(ctx, 1, 2) // user 1 liked user 2
func (r *LikeRepository) Insert(ctx context.Context, likerID, likedID uint64) (bool, error) {
	like := db.Like{LikerID: likerID, LikedID: likedID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		return false, fmt.Errorf("insert like %d→%d: %w", likerID, likedID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HasLiked checks whether liker has liked liked.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *LikeRepository) HasLiked(ctx context.Context, likerID, likedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	return count > 0, err
}

// EarliestLiker returns whichever of a and b liked the other first.
// The lowest sequence id wins, so the answer does not depend on clock skew.
func (r *LikeRepository) EarliestLiker(ctx context.Context, a, b uint64) (uint64, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		Where("(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)", a, b, b, a).
		Order("id ASC").
		First(&like).Error
	if err != nil {
		return 0, fmt.Errorf("earliest like between %d and %d: %w", a, b, err)
	}
	return like.LikerID, nil
}

// Delete removes a single like. Returns false when nothing was removed.
func (r *LikeRepository) Delete(ctx context.Context, likerID, likedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Delete(&db.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("delete like %d→%d: %w", likerID, likedID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeletePair removes likes in both directions between a and b.
func (r *LikeRepository) DeletePair(ctx context.Context, a, b uint64) error {
	return deleteLikePair(r.db.WithContext(ctx), a, b)
}

func deleteLikePair(tx *gorm.DB, a, b uint64) error {
	err := tx.
		Where("(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)", a, b, b, a).
		Delete(&db.Like{}).Error
	if err != nil {
		return fmt.Errorf("delete likes between %d and %d: %w", a, b, err)
	}
	return nil
}

// noActiveMatch excludes like rows whose pair already has an active match.
const noActiveMatch = `
	NOT EXISTS (
		SELECT 1 FROM matches m
		WHERE m.chat_active = ?
		  AND ((m.user1_id = l.liker_id AND m.user2_id = l.liked_id)
		    OR (m.user1_id = l.liked_id AND m.user2_id = l.liker_id))
	)`

// ListAdmirers returns likes received by recipient that have not turned into an active match.
//
// Behavior:
//   - Only likes where liked_id = X are returned.
//   - Pairs with an active match are excluded.
//   - Ordered by created_at DESC, liker_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListAdmirers(ctx, 42, nil, 20) // first 20 people who liked user 42
func (r *LikeRepository) ListAdmirers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	return r.page(ctx, "l.liked_id = ?", recipientID, "l.liker_id", paginationToken, limit,
		func(l db.Like) uint64 { return l.LikerID })
}

// ListMyLikes returns likes sent by liker that are still waiting for a like back.
// Same ordering and pagination as ListAdmirers, keyed on liked_id.
func (r *LikeRepository) ListMyLikes(
	ctx context.Context,
	likerID uint64,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	return r.page(ctx, "l.liker_id = ?", likerID, "l.liked_id", paginationToken, limit,
		func(l db.Like) uint64 { return l.LikedID })
}

func (r *LikeRepository) page(
	ctx context.Context,
	where string,
	userID uint64,
	otherCol string,
	paginationToken *string,
	limit int,
	other func(db.Like) uint64,
) ([]db.Like, *string, error) {
	var likes []db.Like

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("likes l").
		Where(where, userID).
		Where(noActiveMatch, true).
		Order("l.created_at DESC, " + otherCol + " DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(l.created_at < ? OR (l.created_at = ? AND "+otherCol+" < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      other(last),
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountAdmirers returns how many users liked the recipient without an active match.
//
// Behavior:
//   - Same filter as ListAdmirers.
//   - Used in conjunction with Redis cache (DB is fallback).
//
// Example:
//
//	repo.CountAdmirers(ctx, 42) // -> 12
func (r *LikeRepository) CountAdmirers(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("likes l").
		Where("l.liked_id = ?", recipientID).
		Where(noActiveMatch, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
