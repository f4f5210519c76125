package ranking

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/clock"
	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/repository"
)

const (
	// TopN is how many ranked candidates a viewer gets per session.
	TopN = 50
	// ShuffleHead is how many of the top candidates are shuffled for freshness.
	ShuffleHead = 10
)

// Candidate is a ranked profile as seen by one viewer.
type Candidate struct {
	User            db.User
	Interests       []string
	SharedInterests []string
	VibeScore       int
	LikedYou        bool
	PassCount       int
	Score           float64
}

// ShuffleFunc has the signature of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// Ranker builds the ordered candidate list a viewer swipes through.
type Ranker struct {
	users   *repository.UserRepository
	clock   clock.Clock
	log     *slog.Logger
	shuffle ShuffleFunc
}

// NewRanker creates a Ranker with dependencies from AppContext.
func NewRanker(appCtx *app.AppContext) *Ranker {
	return &Ranker{
		users:   repository.NewUserRepository(appCtx.DB),
		clock:   appCtx.Clock,
		log:     appCtx.Logger.With("subsystem", "ranking"),
		shuffle: rand.Shuffle,
	}
}

// WithShuffle replaces the head shuffle; tests pass a no-op for stable output.
func (r *Ranker) WithShuffle(fn ShuffleFunc) *Ranker {
	r.shuffle = fn
	return r
}

// Rank returns candidates for viewer, best first.
//
// Behavior:
//   - Unknown, inactive or banned viewer → empty.
//   - Pool comes from UserRepository.ListCandidates (exclusions, gender symmetry, filters, cap).
//   - Each candidate is scored with Score; one pass in the window halves it.
//   - Sorted descending, cut to TopN, first ShuffleHead shuffled.
//   - Any store error is logged and yields an empty list; callers treat
//     empty as "try later or relax filters".
func (r *Ranker) Rank(ctx context.Context, viewerID uint64, filters repository.CandidateFilters) []Candidate {
	viewer, err := r.users.GetUser(ctx, viewerID)
	if err != nil {
		r.log.Warn("rank: viewer lookup failed", "viewer", viewerID, "err", err)
		return []Candidate{}
	}
	if !viewer.IsActive || viewer.IsBanned {
		r.log.Debug("rank: viewer not eligible", "viewer", viewerID, "active", viewer.IsActive, "banned", viewer.IsBanned)
		return []Candidate{}
	}

	now := r.clock.Now()
	rows, err := r.users.ListCandidates(ctx, viewer, filters, now)
	if err != nil {
		r.log.Error("rank: candidate query failed", "viewer", viewerID, "err", err)
		return []Candidate{}
	}
	if len(rows) == 0 {
		return []Candidate{}
	}

	ids := make([]uint64, 0, len(rows)+1)
	ids = append(ids, viewer.ID)
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	interests, err := r.users.GetInterestsForMany(ctx, ids)
	if err != nil {
		r.log.Error("rank: interest lookup failed", "viewer", viewerID, "err", err)
		return []Candidate{}
	}

	viewerVibe := viewer.Vibe()
	viewerInterests := interests[viewer.ID]

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		shared := SharedInterests(viewerInterests, interests[row.ID])
		vibe := VibeCompatibility(viewerVibe, row.Vibe())
		likedYou := row.LikedYou > 0
		candidates = append(candidates, Candidate{
			User:            row.User,
			Interests:       interests[row.ID],
			SharedInterests: shared,
			VibeScore:       vibe,
			LikedYou:        likedYou,
			PassCount:       row.PassCount,
			Score:           Score(vibe, len(shared), RecencyScore(row.LastActive, now), likedYou, row.PassCount),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].User.ID < candidates[j].User.ID
	})
	if len(candidates) > TopN {
		candidates = candidates[:TopN]
	}

	head := candidates
	if len(head) > ShuffleHead {
		head = head[:ShuffleHead]
	}
	r.shuffle(len(head), func(i, j int) { head[i], head[j] = head[j], head[i] })

	r.log.Debug("rank: done", "viewer", viewerID, "pool", len(rows), "returned", len(candidates))
	return candidates
}
