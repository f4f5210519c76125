package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// The swipe deck is the ranked candidate list a user is paging through.
// Redis holds it as a list with a TTL; the database stays the source of truth,
// so an expired deck just means the caller ranks again.

func (c *RedisCache) keyForDeck(userID uint64) string {
	return fmt.Sprintf("deck:%d", userID)
}

// StoreDeck replaces a user's deck with candidateIDs in order.
func (c *RedisCache) StoreDeck(ctx context.Context, userID uint64, candidateIDs []uint64, ttl time.Duration) error {
	key := c.keyForDeck(userID)
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(candidateIDs) > 0 {
			vals := make([]interface{}, len(candidateIDs))
			for i, id := range candidateIDs {
				vals[i] = id
			}
			pipe.RPush(ctx, key, vals...)
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

// NextFromDeck pops the next candidate. ok=false means the deck is exhausted
// or expired and the caller must rank again.
func (c *RedisCache) NextFromDeck(ctx context.Context, userID uint64) (id uint64, ok bool, err error) {
	val, err := c.Client.LPop(ctx, c.keyForDeck(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err = strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt deck entry %q: %w", val, err)
	}
	return id, true, nil
}

// DeckLen returns how many candidates remain.
func (c *RedisCache) DeckLen(ctx context.Context, userID uint64) (int64, error) {
	return c.Client.LLen(ctx, c.keyForDeck(userID)).Result()
}

// DropDeck forgets a user's deck.
func (c *RedisCache) DropDeck(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.keyForDeck(userID)).Err()
}
