package memoryquota

import (
	"testing"
	"time"
)

func TestConsumeUpToLimit(t *testing.T) {
	c := New()
	for i := 0; i < 3; i++ {
		ok, remaining, err := c.Consume("u1", 3)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("consume %d: expected allowed", i)
		}
		if remaining != 2-i {
			t.Fatalf("consume %d: remaining = %d, want %d", i, remaining, 2-i)
		}
	}
	ok, _, err := c.Consume("u1", 3)
	if err != nil {
		t.Fatalf("consume over limit: %v", err)
	}
	if ok {
		t.Fatal("expected denial at limit")
	}
	used, err := c.Used("u1")
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used != 3 {
		t.Fatalf("denied consume must not count, used = %d", used)
	}
}

func TestCountersArePerUser(t *testing.T) {
	c := New()
	if ok, _, _ := c.Consume("u1", 1); !ok {
		t.Fatal("u1 first consume must be allowed")
	}
	if ok, _, _ := c.Consume("u2", 1); !ok {
		t.Fatal("u2 must have its own counter")
	}
}

func TestCountsResetAtUTCMidnight(t *testing.T) {
	c := New()
	day1 := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return day1 }

	if ok, _, _ := c.Consume("u1", 1); !ok {
		t.Fatal("first consume must be allowed")
	}
	if ok, _, _ := c.Consume("u1", 1); ok {
		t.Fatal("limit reached, must deny")
	}

	c.now = func() time.Time { return day1.Add(2 * time.Hour) }
	ok, remaining, err := c.Consume("u1", 1)
	if err != nil {
		t.Fatalf("consume next day: %v", err)
	}
	if !ok {
		t.Fatal("counter must reset after UTC midnight")
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
}

func TestEmptyUserIDRejected(t *testing.T) {
	c := New()
	if _, err := c.Used(""); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, _, err := c.Consume("", 1); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
