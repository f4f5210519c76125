package cache

import (
	"context"
	"fmt"
	"time"
)

// AllowAction enforces a minimum interval between actions of one user.
// The first call inside the interval wins; the rest get false until the key expires.
func (c *RedisCache) AllowAction(ctx context.Context, userID uint64, interval time.Duration) (bool, error) {
	if interval <= 0 {
		return true, nil
	}
	return c.Client.SetNX(ctx, fmt.Sprintf("ratelimit:action:%d", userID), 1, interval).Result()
}
