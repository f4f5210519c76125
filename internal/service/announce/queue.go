package announce

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/clock"
	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/publisher"
	"github.com/oggyb/crushconnect/internal/repository"
)

// Participant is one side of a match as it looked when the match was made.
type Participant struct {
	User      db.User
	Interests []string
}

func (p Participant) snapshot() db.ProfileSnapshot {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return db.ProfileSnapshot{
		UserID:     p.User.ID,
		Campus:     p.User.Campus,
		Department: p.User.Department,
		Year:       p.User.Year,
		Interests:  interests,
	}
}

// Queue writes matches selected for announcement.
type Queue struct {
	repo     *repository.QueueRepository
	slots    *Slots
	clock    clock.Clock
	notifier publisher.AdminNotifier
	log      *slog.Logger
}

// NewQueue creates a Queue with dependencies from AppContext.
func NewQueue(appCtx *app.AppContext, slots *Slots, notifier publisher.AdminNotifier) *Queue {
	return &Queue{
		repo:     repository.NewQueueRepository(appCtx.DB),
		slots:    slots,
		clock:    appCtx.Clock,
		notifier: notifier,
		log:      appCtx.Logger.With("subsystem", "queue"),
	}
}

// Enqueue stores an announcement for match at the next prime slot and tells
// the admins. Profiles are snapshotted so later edits do not change the post.
func (q *Queue) Enqueue(
	ctx context.Context,
	match *db.Match,
	user1, user2 Participant,
	specialType *db.SpecialType,
	vibeScore float64,
	sharedInterests []string,
) (uint64, error) {
	if sharedInterests == nil {
		sharedInterests = []string{}
	}
	next := q.slots.Next(q.clock.Now())

	item := db.QueueItem{
		MatchID: match.ID,
		User1ID: user1.User.ID,
		User2ID: user2.User.ID,
		Snapshot: datatypes.NewJSONType(db.PairSnapshot{
			User1:           user1.snapshot(),
			User2:           user2.snapshot(),
			SharedInterests: sharedInterests,
			VibeScore:       vibeScore,
		}),
		VibeScore:    vibeScore,
		SpecialType:  specialType,
		NextPostTime: next,
	}
	if err := q.repo.Insert(ctx, &item); err != nil {
		return 0, err
	}

	q.log.Info("match queued", "queue_id", item.ID, "match_id", match.ID, "special_type", specialLabel(specialType), "next_post_time", next)
	q.notifier.Notify(ctx, queuedNotice(item, q.slots.Location()))
	return item.ID, nil
}

func specialLabel(st *db.SpecialType) string {
	if st == nil {
		return "—"
	}
	return string(*st)
}

func queuedNotice(item db.QueueItem, loc *time.Location) string {
	snap := item.Snapshot.Data()
	shared := "None"
	if len(snap.SharedInterests) > 0 {
		shared = strings.Join(snap.SharedInterests, ", ")
	}
	return fmt.Sprintf(
		"🎉 NEW MATCH QUEUED\n"+
			"Queue ID: %d\n"+
			"Match ID: %d\n"+
			"Type: %s\n"+
			"Vibe Score: %.2f\n"+
			"Scheduled: %s\n"+
			"User1: %s • %s • %s\n"+
			"User2: %s • %s • %s\n"+
			"Shared Interests: %s",
		item.ID, item.MatchID, specialLabel(item.SpecialType), item.VibeScore,
		item.NextPostTime.In(loc).Format("2006-01-02 15:04 MST"),
		snap.User1.Campus, snap.User1.Department, snap.User1.Year,
		snap.User2.Campus, snap.User2.Department, snap.User2.Year,
		shared,
	)
}

func postedNotice(item db.QueueItem, ref string) string {
	return fmt.Sprintf("🟩 MATCH POSTED\nQueue ID: %d\nMatch ID: %d\nRef: %s", item.ID, item.MatchID, ref)
}

func errorNotice(item db.QueueItem, err error) string {
	return fmt.Sprintf("🟥 MATCH ERROR\nQueue ID: %d\nError: %s", item.ID, err)
}
