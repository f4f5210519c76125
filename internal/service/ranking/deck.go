package ranking

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/cache"
	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/repository"
)

// Deck pages a viewer through their ranked candidates one at a time.
// The ranked id list is cached in Redis per viewer; when it runs out or
// expires, the viewer is ranked again.
type Deck struct {
	ranker *Ranker
	users  *repository.UserRepository
	cache  *cache.RedisCache
	ttl    time.Duration
	log    *slog.Logger
}

// NewDeck creates a Deck on top of ranker.
func NewDeck(appCtx *app.AppContext, ranker *Ranker) *Deck {
	return &Deck{
		ranker: ranker,
		users:  repository.NewUserRepository(appCtx.DB),
		cache:  appCtx.RedisCache,
		ttl:    appCtx.Config.Matching.DeckTTL,
		log:    appCtx.Logger.With("subsystem", "deck"),
	}
}

// Next returns the next candidate for viewer, or nil when there is nobody
// left even after re-ranking with the given filters.
func (d *Deck) Next(ctx context.Context, viewerID uint64, filters repository.CandidateFilters) *db.User {
	if u := d.pop(ctx, viewerID); u != nil {
		return u
	}

	ranked := d.ranker.Rank(ctx, viewerID, filters)
	if len(ranked) == 0 {
		return nil
	}
	ids := make([]uint64, len(ranked))
	for i, c := range ranked {
		ids[i] = c.User.ID
	}
	if err := d.cache.StoreDeck(ctx, viewerID, ids[1:], d.ttl); err != nil {
		d.log.Warn("deck: store failed", "viewer", viewerID, "err", err)
	}
	first := ranked[0].User
	return &first
}

// Reset drops the cached deck, e.g. after the viewer changes filters.
func (d *Deck) Reset(ctx context.Context, viewerID uint64) {
	if err := d.cache.DropDeck(ctx, viewerID); err != nil {
		d.log.Warn("deck: drop failed", "viewer", viewerID, "err", err)
	}
}

// pop skips entries that became ineligible since the deck was built.
func (d *Deck) pop(ctx context.Context, viewerID uint64) *db.User {
	for {
		id, ok, err := d.cache.NextFromDeck(ctx, viewerID)
		if err != nil {
			d.log.Warn("deck: pop failed", "viewer", viewerID, "err", err)
			return nil
		}
		if !ok {
			return nil
		}
		u, err := d.users.GetUser(ctx, id)
		if err != nil {
			d.log.Debug("deck: skipping missing candidate", "viewer", viewerID, "candidate", id, "err", err)
			continue
		}
		if !u.IsActive || u.IsBanned {
			continue
		}
		return u
	}
}
