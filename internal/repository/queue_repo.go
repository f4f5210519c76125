package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
)

// QueueRepository stores announcement queue items.
//
// State is tracked with two columns:
//   - pending:  sent = false, posting_at IS NULL
//   - posting:  sent = false, posting_at set (reserved by a scheduler tick)
//   - sent:     sent = true
type QueueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new repository bound to the given DB connection.
func NewQueueRepository(database *gorm.DB) *QueueRepository {
	return &QueueRepository{db: database}
}

// Insert stores a new queue item and fills in its id.
func (r *QueueRepository) Insert(ctx context.Context, item *db.QueueItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("insert queue item for match %d: %w", item.MatchID, err)
	}
	return nil
}

// Get loads one queue item.
func (r *QueueRepository) Get(ctx context.Context, id uint64) (*db.QueueItem, error) {
	var item db.QueueItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("queue item %d: %w", id, svcErr.ErrNotFound)
		}
		return nil, fmt.Errorf("get queue item %d: %w", id, err)
	}
	return &item, nil
}

// Due returns pending items whose next_post_time is at or before now.
// Items currently reserved by a tick are skipped.
func (r *QueueRepository) Due(ctx context.Context, now time.Time) ([]db.QueueItem, error) {
	var items []db.QueueItem
	err := r.db.WithContext(ctx).
		Where("sent = ? AND posting_at IS NULL AND next_post_time <= ?", false, now).
		Order("next_post_time ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list due queue items: %w", err)
	}
	return items, nil
}

// Pending returns every unsent item, including reserved ones.
func (r *QueueRepository) Pending(ctx context.Context) ([]db.QueueItem, error) {
	var items []db.QueueItem
	err := r.db.WithContext(ctx).
		Where("sent = ?", false).
		Order("next_post_time ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list pending queue items: %w", err)
	}
	return items, nil
}

// Stuck returns items reserved before olderThan that never reached sent.
// They need an operator to release or force-post them.
func (r *QueueRepository) Stuck(ctx context.Context, olderThan time.Time) ([]db.QueueItem, error) {
	var items []db.QueueItem
	err := r.db.WithContext(ctx).
		Where("sent = ? AND posting_at IS NOT NULL AND posting_at < ?", false, olderThan).
		Order("posting_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list stuck queue items: %w", err)
	}
	return items, nil
}

// Reserve moves an item from pending to posting. It returns false when the
// item is already sent or reserved by someone else.
func (r *QueueRepository) Reserve(ctx context.Context, id uint64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.QueueItem{}).
		Where("id = ? AND sent = ? AND posting_at IS NULL", id, false).
		Update("posting_at", now)
	if res.Error != nil {
		return false, fmt.Errorf("reserve queue item %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkSent records a successful publish.
func (r *QueueRepository) MarkSent(ctx context.Context, id uint64, messageRef string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&db.QueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sent":        true,
			"sent_at":     now,
			"posting_at":  nil,
			"message_ref": messageRef,
			"error":       nil,
		}).Error
	if err != nil {
		return fmt.Errorf("mark queue item %d sent: %w", id, err)
	}
	return nil
}

// RecordError stores a dispatch failure and returns the item to pending.
func (r *QueueRepository) RecordError(ctx context.Context, id uint64, msg string) error {
	err := r.db.WithContext(ctx).
		Model(&db.QueueItem{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"posting_at": nil,
			"error":      msg,
		}).Error
	if err != nil {
		return fmt.Errorf("record error on queue item %d: %w", id, err)
	}
	return nil
}

// Reschedule moves pending items to a new post time.
func (r *QueueRepository) Reschedule(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&db.QueueItem{}).
		Where("id IN ? AND sent = ?", ids, false).
		Update("next_post_time", at).Error
	if err != nil {
		return fmt.Errorf("reschedule %d queue items: %w", len(ids), err)
	}
	return nil
}

// Release clears a stale reservation so the next tick picks the item up again.
func (r *QueueRepository) Release(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.QueueItem{}).
		Where("id = ? AND sent = ? AND posting_at IS NOT NULL", id, false).
		Update("posting_at", nil)
	if res.Error != nil {
		return false, fmt.Errorf("release queue item %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Delete removes an item. Only operators call this; the scheduler never deletes.
func (r *QueueRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&db.QueueItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete queue item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("queue item %d: %w", id, svcErr.ErrNotFound)
	}
	return nil
}
