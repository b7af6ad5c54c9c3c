package redisquota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-rails/downloadkit/quota"
)

// Counter is a Redis-backed daily download counter. Keys carry the UTC day,
// so a counter expires shortly after its day ends and the next day starts
// from zero without an explicit reset.
type Counter struct {
	rdb    *redis.Client
	ctx    context.Context
	prefix string

	now func() time.Time
}

func New(rdb *redis.Client) *Counter {
	return &Counter{rdb: rdb, ctx: context.Background(), prefix: "dl:quota:", now: time.Now}
}

func (c *Counter) key(userID string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, quota.DayKey(c.now()), userID)
}

// Used returns today's count for the user.
func (c *Counter) Used(userID string) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	if userID == "" {
		return 0, fmt.Errorf("user id required")
	}
	n, err := c.rdb.Get(c.ctx, c.key(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Consume increments today's count if it is under limit. The increment is
// rolled back when it would exceed the limit, so concurrent callers over the
// boundary settle at exactly limit.
func (c *Counter) Consume(userID string, limit int) (bool, int, error) {
	if c == nil || c.rdb == nil {
		return true, limit, nil
	}
	if userID == "" {
		return false, 0, fmt.Errorf("user id required")
	}
	key := c.key(userID)
	now := c.now()

	pipe := c.rdb.TxPipeline()
	incrCmd := pipe.Incr(c.ctx, key)
	pipe.ExpireAt(c.ctx, key, quota.NextReset(now).Add(time.Hour))
	if _, err := pipe.Exec(c.ctx); err != nil {
		return false, 0, err
	}
	used, err := incrCmd.Result()
	if err != nil {
		return false, 0, err
	}
	if used > int64(limit) {
		c.rdb.Decr(c.ctx, key)
		return false, 0, nil
	}
	return true, limit - int(used), nil
}
