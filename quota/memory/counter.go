package memoryquota

import (
	"fmt"
	"sync"
	"time"

	"github.com/open-rails/downloadkit/quota"
)

// Counter is an in-memory daily download counter.
// It is intended as a single-node fallback when Redis is unavailable.
type Counter struct {
	mu     sync.Mutex
	day    string
	counts map[string]int

	// now is swappable in tests.
	now func() time.Time
}

// New constructs a new in-memory counter.
func New() *Counter {
	return &Counter{counts: make(map[string]int), now: time.Now}
}

// roll discards all counts when the UTC day has changed since the last call.
// Callers hold c.mu.
func (c *Counter) roll() {
	day := quota.DayKey(c.now())
	if day != c.day {
		c.day = day
		c.counts = make(map[string]int)
	}
}

// Used returns today's count for the user.
func (c *Counter) Used(userID string) (int, error) {
	if c == nil {
		return 0, nil
	}
	if userID == "" {
		return 0, fmt.Errorf("user id required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll()
	return c.counts[userID], nil
}

// Consume increments today's count if it is under limit.
func (c *Counter) Consume(userID string, limit int) (bool, int, error) {
	if c == nil {
		return true, limit, nil
	}
	if userID == "" {
		return false, 0, fmt.Errorf("user id required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll()

	used := c.counts[userID]
	if used >= limit {
		return false, 0, nil
	}
	used++
	c.counts[userID] = used
	return true, limit - used, nil
}
