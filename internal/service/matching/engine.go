package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/cache"
	"github.com/oggyb/crushconnect/internal/clock"
	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/repository"
	"github.com/oggyb/crushconnect/internal/service/announce"
	"github.com/oggyb/crushconnect/internal/service/ranking"
)

// Status is the outcome of a like or pass.
type Status string

const (
	StatusLiked   Status = "liked"
	StatusMatch   Status = "match"
	StatusPassed  Status = "passed"
	StatusInvalid Status = "invalid"
	StatusError   Status = "error"
)

// Result is returned by Like and Pass. Err is set for StatusInvalid and
// StatusError so the transport can map it.
type Result struct {
	Status  Status
	MatchID uint64
	Err     error
}

// Enqueuer puts a fresh match on the announcement queue.
type Enqueuer interface {
	Enqueue(
		ctx context.Context,
		match *db.Match,
		user1, user2 announce.Participant,
		specialType *db.SpecialType,
		vibeScore float64,
		sharedInterests []string,
	) (uint64, error)
}

// Rewarder pays the user whose like completed a match.
type Rewarder interface {
	RewardMatch(ctx context.Context, userID, matchID uint64) error
}

// Engine turns likes into matches and owns the match lifecycle.
type Engine struct {
	likes   *repository.LikeRepository
	passes  *repository.PassRepository
	matches *repository.MatchRepository
	users   *repository.UserRepository
	cache   *cache.RedisCache
	queue   Enqueuer
	rewards Rewarder
	clock   clock.Clock
	log     *slog.Logger

	sampleRate float64
	sample     func() float64
}

// NewEngine creates an Engine with dependencies from AppContext.
// The sampling rate for non-special matches comes from config.Matching.
func NewEngine(appCtx *app.AppContext, queue Enqueuer) *Engine {
	return &Engine{
		likes:      repository.NewLikeRepository(appCtx.DB),
		passes:     repository.NewPassRepository(appCtx.DB),
		matches:    repository.NewMatchRepository(appCtx.DB),
		users:      repository.NewUserRepository(appCtx.DB),
		cache:      appCtx.RedisCache,
		queue:      queue,
		clock:      appCtx.Clock,
		log:        appCtx.Logger.With("subsystem", "matching"),
		sampleRate: appCtx.Config.Matching.SampleRate,
		sample:     rand.Float64,
	}
}

// WithSampler replaces the random source used to sample non-special matches.
func (e *Engine) WithSampler(fn func() float64) *Engine {
	e.sample = fn
	return e
}

// WithRewarder pays a bonus on every new match. Without one nobody is paid.
func (e *Engine) WithRewarder(r Rewarder) *Engine {
	e.rewards = r
	return e
}

// Like records liker → liked and creates a match when the like is mutual.
//
// Behavior:
//   - Unknown, banned or deactivated target → StatusInvalid, nothing written.
//   - Repeating a like is a no-op and returns the same status as the first call.
//   - No reverse like → StatusLiked.
//   - Reverse like → one active match for the pair (created at most once even
//     when both sides like at the same moment), initiator = earliest like.
//   - A new match is classified and maybe queued for announcement; failures
//     there are logged and never undo the match.
//
// Example:
//
//	res := engine.Like(ctx, 7, 3) // {Status: "match", MatchID: 12} if 3 already liked 7
func (e *Engine) Like(ctx context.Context, likerID, likedID uint64) Result {
	log := e.log.With("liker", likerID, "liked", likedID)
	if likerID == likedID {
		return Result{Status: StatusInvalid, Err: svcErr.ErrSelfAction}
	}
	if res, ok := e.checkTarget(ctx, likedID, log); !ok {
		return res
	}

	created, err := e.likes.Insert(ctx, likerID, likedID)
	if err != nil {
		log.Error("like: insert failed", "err", err)
		return Result{Status: StatusError, Err: err}
	}
	if created {
		e.dropAdmirerCount(ctx, likedID)
	}
	if err := e.users.TouchLastActive(ctx, likerID, e.clock.Now()); err != nil {
		log.Warn("like: touch last active failed", "err", err)
	}

	mutual, err := e.likes.HasLiked(ctx, likedID, likerID)
	if err != nil {
		log.Error("like: reverse check failed", "err", err)
		return Result{Status: StatusError, Err: err}
	}
	if !mutual {
		return Result{Status: StatusLiked}
	}

	initiator, err := e.likes.EarliestLiker(ctx, likerID, likedID)
	if err != nil {
		log.Error("like: initiator lookup failed", "err", err)
		return Result{Status: StatusError, Err: err}
	}

	match, matchCreated, err := e.matches.CreateActive(ctx, likerID, likedID, initiator)
	if err != nil {
		log.Error("like: create match failed", "err", err)
		return Result{Status: StatusError, Err: err}
	}
	if !matchCreated {
		return Result{Status: StatusMatch, MatchID: match.ID}
	}

	log.Info("match created", "match_id", match.ID, "initiator", initiator)
	// both sides leave each other's admirer lists
	e.dropAdmirerCount(ctx, likerID)
	e.dropAdmirerCount(ctx, likedID)

	if e.rewards != nil {
		if err := e.rewards.RewardMatch(ctx, likerID, match.ID); err != nil {
			log.Error("like: match reward failed", "match_id", match.ID, "err", err)
		}
	}
	e.announce(ctx, match, log)
	return Result{Status: StatusMatch, MatchID: match.ID}
}

// announce classifies a new match and queues it when it is special or sampled.
func (e *Engine) announce(ctx context.Context, match *db.Match, log *slog.Logger) {
	log = log.With("match_id", match.ID)

	u1, err := e.users.GetUser(ctx, match.User1ID)
	if err != nil {
		log.Error("announce: load user1 failed", "err", err)
		return
	}
	u2, err := e.users.GetUser(ctx, match.User2ID)
	if err != nil {
		log.Error("announce: load user2 failed", "err", err)
		return
	}
	interests, err := e.users.GetInterestsForMany(ctx, []uint64{u1.ID, u2.ID})
	if err != nil {
		log.Error("announce: load interests failed", "err", err)
		return
	}

	vibe := ranking.VibeCompatibility(u1.Vibe(), u2.Vibe())
	special, shared := Classify(*u1, *u2, interests[u1.ID], interests[u2.ID], vibe)

	if special == nil && e.sample() >= e.sampleRate {
		log.Debug("announce: not special, not sampled")
		return
	}

	queueID, err := e.queue.Enqueue(ctx, match,
		announce.Participant{User: *u1, Interests: interests[u1.ID]},
		announce.Participant{User: *u2, Interests: interests[u2.ID]},
		special, float64(vibe), shared,
	)
	if err != nil {
		log.Error("announce: enqueue failed", "err", err)
		return
	}
	log.Debug("announce: queued", "queue_id", queueID, "vibe", vibe)
}

// Pass records that user skipped target. Two passes inside the window hide
// the target from the user's ranking.
func (e *Engine) Pass(ctx context.Context, userID, targetID uint64) Result {
	if userID == targetID {
		return Result{Status: StatusInvalid, Err: svcErr.ErrSelfAction}
	}
	if res, ok := e.checkTarget(ctx, targetID, e.log.With("user", userID, "target", targetID)); !ok {
		return res
	}
	now := e.clock.Now()
	if err := e.passes.Record(ctx, userID, targetID, now); err != nil {
		e.log.Error("pass: record failed", "user", userID, "target", targetID, "err", err)
		return Result{Status: StatusError, Err: err}
	}
	if err := e.users.TouchLastActive(ctx, userID, now); err != nil {
		e.log.Warn("pass: touch last active failed", "user", userID, "err", err)
	}
	return Result{Status: StatusPassed}
}

// checkTarget rejects unknown, banned and deactivated targets before anything
// is written for them.
func (e *Engine) checkTarget(ctx context.Context, targetID uint64, log *slog.Logger) (Result, bool) {
	target, err := e.users.GetUser(ctx, targetID)
	switch {
	case errors.Is(err, svcErr.ErrNotFound):
		return Result{Status: StatusInvalid, Err: err}, false
	case err != nil:
		log.Error("target lookup failed", "err", err)
		return Result{Status: StatusError, Err: err}, false
	case target.IsBanned || !target.IsActive:
		return Result{Status: StatusInvalid, Err: fmt.Errorf("user %d is not available: %w", targetID, svcErr.ErrInvalidArgument)}, false
	}
	return Result{}, true
}

// Unlike withdraws a one-sided like. Likes that are part of an active match
// can only go away through Unmatch.
func (e *Engine) Unlike(ctx context.Context, likerID, likedID uint64) (bool, error) {
	_, err := e.matches.GetActiveBetween(ctx, likerID, likedID)
	switch {
	case err == nil:
		return false, fmt.Errorf("unlike %d→%d: active match exists: %w", likerID, likedID, svcErr.ErrInvalidArgument)
	case !errors.Is(err, svcErr.ErrNotFound):
		return false, err
	}

	removed, err := e.likes.Delete(ctx, likerID, likedID)
	if err != nil {
		e.log.Error("unlike failed", "liker", likerID, "liked", likedID, "err", err)
		return false, err
	}
	if removed {
		e.dropAdmirerCount(ctx, likedID)
	}
	return removed, nil
}

// Unmatch ends an active match for one of its participants and returns the
// match as it is afterwards.
//
// Behavior:
//   - Non-participant → ErrNotParticipant, nothing changes.
//   - Active match → chat_active=false, revealed=false, likes in both
//     directions deleted so the pair can match again later.
//   - Already inactive → returned unchanged.
func (e *Engine) Unmatch(ctx context.Context, matchID, userID uint64) (*db.Match, error) {
	match, err := e.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Has(userID) {
		e.log.Warn("unmatch: not a participant", "match_id", matchID, "user", userID)
		return nil, fmt.Errorf("unmatch %d by %d: %w", matchID, userID, svcErr.ErrNotParticipant)
	}
	if !match.ChatActive {
		return match, nil
	}

	if err := e.matches.Deactivate(ctx, match); err != nil {
		e.log.Error("unmatch failed", "match_id", matchID, "err", err)
		return nil, err
	}
	match.ChatActive = false
	match.Revealed = false
	match.ActivePair = nil

	e.log.Info("match ended", "match_id", matchID, "by", userID)
	return match, nil
}

// Reveal marks an active match as revealed for a participant. It does not
// charge anybody; see coins.PaidReveal for the paid flow.
func (e *Engine) Reveal(ctx context.Context, matchID, userID uint64) (bool, error) {
	match, err := e.matches.GetByID(ctx, matchID)
	if err != nil {
		return false, err
	}
	if !match.Has(userID) {
		return false, fmt.Errorf("reveal %d by %d: %w", matchID, userID, svcErr.ErrNotParticipant)
	}
	if !match.ChatActive {
		return false, fmt.Errorf("reveal %d: match is no longer active: %w", matchID, svcErr.ErrNotFound)
	}
	if err := e.matches.SetRevealed(ctx, matchID); err != nil {
		e.log.Error("reveal failed", "match_id", matchID, "err", err)
		return false, err
	}
	return true, nil
}

// ListMatches returns the active matches of a user.
func (e *Engine) ListMatches(ctx context.Context, userID uint64) ([]db.Match, error) {
	return e.matches.ListForUser(ctx, userID)
}

func (e *Engine) dropAdmirerCount(ctx context.Context, userID uint64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateAdmirerCount(ctx, userID); err != nil {
		e.log.Warn("admirer count invalidation failed", "user", userID, "err", err)
	}
}
