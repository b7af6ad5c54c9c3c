package ledgerquota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/open-rails/downloadkit/quota"
)

var _ quota.Counter = (*Counter)(nil)

type fakeHistory struct {
	counts     map[string]int
	lastCutoff time.Time
	err        error
}

func (f *fakeHistory) CountDownloadsSince(_ context.Context, userID string, cutoff time.Time) (int, error) {
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[userID], nil
}

func TestUsedCountsSinceUTCMidnight(t *testing.T) {
	hist := &fakeHistory{counts: map[string]int{"u1": 4}}
	c := New(hist)
	c.now = func() time.Time {
		return time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)
	}

	used, err := c.Used("u1")
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used != 4 {
		t.Fatalf("used = %d, want 4", used)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !hist.lastCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", hist.lastCutoff, want)
	}
}

func TestConsumeChecksHeadroom(t *testing.T) {
	hist := &fakeHistory{counts: map[string]int{"u1": 9}}
	c := New(hist)

	allowed, remaining, err := c.Consume("u1", 10)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !allowed || remaining != 0 {
		t.Fatalf("last slot: allowed=%v remaining=%d", allowed, remaining)
	}

	hist.counts["u1"] = 10
	allowed, _, err = c.Consume("u1", 10)
	if err != nil {
		t.Fatalf("consume at limit: %v", err)
	}
	if allowed {
		t.Fatal("expected denial at the limit")
	}
}

func TestConsumeSurfacesHistoryErrors(t *testing.T) {
	hist := &fakeHistory{err: errors.New("query timeout")}
	c := New(hist)
	if _, _, err := c.Consume("u1", 10); err == nil {
		t.Fatal("expected history error to surface")
	}
}

func TestEmptyUserIDRejected(t *testing.T) {
	c := New(&fakeHistory{counts: map[string]int{}})
	if _, err := c.Used(""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
