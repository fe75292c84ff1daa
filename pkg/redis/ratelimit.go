package redis

import (
	"context"
	"time"
)

// IsRateLimited increments a fixed-window counter for key and reports
// whether the caller exceeded limit within the window. The window resets
// when its key expires; the first hit in a window sets the expiry.
func (c *Client) IsRateLimited(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count > limit, nil
}
