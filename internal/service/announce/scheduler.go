package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/clock"
	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/publisher"
	"github.com/oggyb/crushconnect/internal/repository"
)

const (
	// priority weights for due items; same shape as candidate scoring
	dueWeightVibe     = 0.45
	dueWeightInterest = 0.25
	dueSpecialBonus   = 10.0

	// StuckAfter is how long an item may sit in "posting" before operators see it as stuck.
	StuckAfter = 15 * time.Minute
)

// TickResult summarises one scheduler pass.
type TickResult struct {
	RunID       string
	Due         int
	Posted      int
	Failed      int
	Rescheduled int
}

// Scheduler drains due queue items into the public channel, at most
// maxPerSlot per pass. Everything else is pushed to the next prime slot.
type Scheduler struct {
	pinger     interface{ Ping(context.Context) error }
	repo       *repository.QueueRepository
	slots      *Slots
	renderer   *Renderer
	pub        publisher.ChannelPublisher
	notifier   publisher.AdminNotifier
	clock      clock.Clock
	log        *slog.Logger
	interval   time.Duration
	maxPerSlot int
}

type dbPinger struct{ appCtx *app.AppContext }

func (p dbPinger) Ping(ctx context.Context) error { return db.Ping(ctx, p.appCtx.DB) }

// NewScheduler creates a Scheduler with dependencies from AppContext.
// Interval and capacity come from config.Scheduler.
func NewScheduler(
	appCtx *app.AppContext,
	slots *Slots,
	renderer *Renderer,
	pub publisher.ChannelPublisher,
	notifier publisher.AdminNotifier,
) *Scheduler {
	maxPerSlot := appCtx.Config.Scheduler.MaxPostsPerSlot
	if maxPerSlot <= 0 {
		maxPerSlot = 1
	}
	return &Scheduler{
		pinger:     dbPinger{appCtx: appCtx},
		repo:       repository.NewQueueRepository(appCtx.DB),
		slots:      slots,
		renderer:   renderer,
		pub:        pub,
		notifier:   notifier,
		clock:      appCtx.Clock,
		log:        appCtx.Logger.With("subsystem", "scheduler"),
		interval:   appCtx.Config.Scheduler.Interval,
		maxPerSlot: maxPerSlot,
	}
}

// Run ticks until ctx is done. It refuses to start when the database is
// unreachable. An in-flight tick always finishes before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := s.pinger.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("scheduler not started: %w", err)
	}

	s.log.Info("scheduler started", "interval", s.interval, "max_posts_per_slot", s.maxPerSlot)
	for {
		s.Tick(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-time.After(s.interval):
		}
	}
}

// Tick runs one pass. Per-item failures are recorded on the item and never
// abort the pass.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	res := TickResult{RunID: uuid.NewString()}
	log := s.log.With("run_id", res.RunID)
	now := s.clock.Now()

	items, err := s.repo.Due(ctx, now)
	if err != nil {
		log.Error("tick: fetch due items failed", "err", err)
		return res
	}
	res.Due = len(items)
	if len(items) == 0 {
		return res
	}

	rankDue(items)

	publish := items
	var rest []db.QueueItem
	if len(items) > s.maxPerSlot {
		publish, rest = items[:s.maxPerSlot], items[s.maxPerSlot:]
	}

	if len(rest) > 0 {
		next := s.slots.Next(now)
		ids := make([]uint64, len(rest))
		for i, item := range rest {
			ids[i] = item.ID
		}
		if err := s.repo.Reschedule(ctx, ids, next); err != nil {
			log.Error("tick: reschedule failed", "count", len(ids), "err", err)
		} else {
			res.Rescheduled = len(ids)
			log.Info("tick: rescheduled overflow", "count", len(ids), "next_post_time", next)
		}
	}

	for _, item := range publish {
		posted, err := s.publish(ctx, item, log)
		switch {
		case err != nil:
			res.Failed++
		case posted:
			res.Posted++
		}
	}

	log.Info("tick done", "due", res.Due, "posted", res.Posted, "failed", res.Failed, "rescheduled", res.Rescheduled)
	return res
}

// publish reserves, renders, posts and marks one item. posted=false with a
// nil error means another runner holds the reservation.
func (s *Scheduler) publish(ctx context.Context, item db.QueueItem, log *slog.Logger) (posted bool, err error) {
	log = log.With("queue_id", item.ID, "match_id", item.MatchID)

	reserved, err := s.repo.Reserve(ctx, item.ID, s.clock.Now())
	if err != nil {
		log.Error("publish: reserve failed", "err", err)
		return false, err
	}
	if !reserved {
		log.Warn("publish: item already reserved or sent, skipping")
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while publishing: %v", r)
			s.fail(ctx, item, err, log)
		}
	}()

	text, err := s.renderer.Render(item)
	if err != nil {
		s.fail(ctx, item, err, log)
		return false, err
	}

	ref, err := s.pub.Post(ctx, text)
	if err != nil {
		s.fail(ctx, item, err, log)
		return false, err
	}

	// Posted but not marked: the item stays reserved and shows up as stuck.
	if err := s.repo.MarkSent(ctx, item.ID, ref, s.clock.Now()); err != nil {
		log.Error("publish: posted but mark sent failed", "ref", ref, "err", err)
		return true, nil
	}

	log.Info("publish: posted", "ref", ref)
	s.notifier.Notify(ctx, postedNotice(item, ref))
	return true, nil
}

func (s *Scheduler) fail(ctx context.Context, item db.QueueItem, cause error, log *slog.Logger) {
	log.Error("publish: failed", "err", cause)
	if err := s.repo.RecordError(ctx, item.ID, cause.Error()); err != nil {
		log.Error("publish: record error failed", "err", err)
	}
	s.notifier.Notify(ctx, errorNotice(item, cause))
}

// rankDue orders due items best first; ties go to the item waiting longest.
func rankDue(items []db.QueueItem) {
	score := func(it db.QueueItem) float64 {
		s := dueWeightVibe*it.VibeScore + dueWeightInterest*float64(len(it.Snapshot.Data().SharedInterests))
		if it.SpecialType != nil {
			s += dueSpecialBonus
		}
		return s
	}
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := score(items[i]), score(items[j])
		if si != sj {
			return si > sj
		}
		if !items[i].NextPostTime.Equal(items[j].NextPostTime) {
			return items[i].NextPostTime.Before(items[j].NextPostTime)
		}
		return items[i].ID < items[j].ID
	})
}

// GetDueItems lists items the next tick would consider.
func (s *Scheduler) GetDueItems(ctx context.Context) ([]db.QueueItem, error) {
	return s.repo.Due(ctx, s.clock.Now())
}

// GetAllPending lists every unsent item.
func (s *Scheduler) GetAllPending(ctx context.Context) ([]db.QueueItem, error) {
	return s.repo.Pending(ctx)
}

// GetStuckItems lists items reserved longer than StuckAfter without being marked sent.
func (s *Scheduler) GetStuckItems(ctx context.Context) ([]db.QueueItem, error) {
	return s.repo.Stuck(ctx, s.clock.Now().Add(-StuckAfter))
}

// DeleteItem removes an item permanently.
func (s *Scheduler) DeleteItem(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("queue item deleted by operator", "queue_id", id)
	return nil
}

// ForcePost publishes an item right now, ignoring its slot and the capacity
// cap. A reservation older than StuckAfter is cleared first; a fresher one
// means another runner is mid-post and ErrInFlight is returned. Returns the
// dispatch error, if any.
func (s *Scheduler) ForcePost(ctx context.Context, id uint64) error {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Sent {
		return fmt.Errorf("queue item %d: %w", id, svcErr.ErrAlreadySent)
	}
	if item.PostingAt != nil {
		if item.PostingAt.After(s.clock.Now().Add(-StuckAfter)) {
			return fmt.Errorf("queue item %d reserved at %s: %w", id, item.PostingAt.UTC().Format(time.RFC3339), svcErr.ErrInFlight)
		}
		if _, err := s.repo.Release(ctx, id); err != nil {
			return err
		}
	}

	log := s.log.With("run_id", "force-"+uuid.NewString())
	posted, err := s.publish(ctx, *item, log)
	if err != nil {
		return err
	}
	if !posted {
		return fmt.Errorf("queue item %d: %w", id, svcErr.ErrInFlight)
	}
	return nil
}

// ReleaseItem clears a posting reservation so the item is retried on the
// next tick. Operators use it after checking the channel for a duplicate.
func (s *Scheduler) ReleaseItem(ctx context.Context, id uint64) error {
	released, err := s.repo.Release(ctx, id)
	if err != nil {
		return err
	}
	if !released {
		return fmt.Errorf("queue item %d is not reserved: %w", id, svcErr.ErrNotFound)
	}
	s.log.Info("queue item released by operator", "queue_id", id)
	return nil
}
