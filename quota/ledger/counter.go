// Package ledgerquota derives daily counts from the download history instead
// of a separate counter store, so counts survive restarts without redis.
package ledgerquota

import (
	"context"
	"fmt"
	"time"

	"github.com/open-rails/downloadkit/quota"
)

// History is the read surface the counter needs from the download ledger.
type History interface {
	CountDownloadsSince(ctx context.Context, userID string, cutoff time.Time) (int, error)
}

// Counter counts today's downloads straight off the ledger. The history
// insert that follows a successful Consume is what advances the count, so
// Consume itself only checks headroom; two attempts racing over the last
// slot can both pass, which the durable pair (memory or redis) prevents
// where that matters.
type Counter struct {
	hist History
	ctx  context.Context

	now func() time.Time
}

func New(hist History) *Counter {
	return &Counter{hist: hist, ctx: context.Background(), now: time.Now}
}

// Used returns the user's recorded downloads since UTC midnight.
func (c *Counter) Used(userID string) (int, error) {
	if c == nil || c.hist == nil {
		return 0, nil
	}
	if userID == "" {
		return 0, fmt.Errorf("user id required")
	}
	return c.hist.CountDownloadsSince(c.ctx, userID, quota.DayStart(c.now()))
}

// Consume reports whether the user still has headroom today.
func (c *Counter) Consume(userID string, limit int) (bool, int, error) {
	if c == nil || c.hist == nil {
		return true, limit, nil
	}
	used, err := c.Used(userID)
	if err != nil {
		return false, 0, err
	}
	if used >= limit {
		return false, 0, nil
	}
	return true, limit - used - 1, nil
}
