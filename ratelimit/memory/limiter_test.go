package memorylimiter

import (
	"testing"
	"time"
)

func TestAllowUpToBucketLimit(t *testing.T) {
	l := New(map[string]Limit{"download_record": {Limit: 2, Window: time.Minute}})
	for i := 0; i < 2; i++ {
		ok, err := l.AllowNamed("download_record", "u1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("allow %d: expected allowed", i)
		}
	}
	ok, err := l.AllowNamed("download_record", "u1")
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if ok {
		t.Fatal("expected denial over the limit")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(map[string]Limit{"download_record": {Limit: 1, Window: time.Minute}})
	if ok, _ := l.AllowNamed("download_record", "u1"); !ok {
		t.Fatal("u1 first request must pass")
	}
	if ok, _ := l.AllowNamed("download_record", "u2"); !ok {
		t.Fatal("u2 must have its own window")
	}
	if ok, _ := l.AllowNamed("download_check", "u1"); !ok {
		t.Fatal("another bucket must have its own window")
	}
}

func TestUnknownBucketFallsBackToDefault(t *testing.T) {
	l := New(map[string]Limit{"default": {Limit: 1, Window: time.Minute}})
	if ok, _ := l.AllowNamed("anything", "u1"); !ok {
		t.Fatal("first request must pass")
	}
	if ok, _ := l.AllowNamed("anything", "u1"); ok {
		t.Fatal("default bucket limit must apply")
	}
}

func TestEmptyBucketOrKeyRejected(t *testing.T) {
	l := New(nil)
	if _, err := l.AllowNamed("", "u1"); err == nil {
		t.Fatal("expected error for empty bucket")
	}
	if _, err := l.AllowNamed("download_check", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestDownloadLimitsCoverAdapterBuckets(t *testing.T) {
	limits := DownloadLimits()
	for _, bucket := range []string{"download_check", "download_record", "asset_get", "file_link", "subscription"} {
		if _, ok := limits[bucket]; !ok {
			t.Errorf("missing default limit for %q", bucket)
		}
	}
}
