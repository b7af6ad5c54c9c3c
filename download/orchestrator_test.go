package download

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/open-rails/downloadkit/assets"
	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/notify"
	"github.com/open-rails/downloadkit/records"
	memorystore "github.com/open-rails/downloadkit/storage/memory"

	"github.com/open-rails/downloadkit/session"
)

type fakeChecker struct {
	res   *entitlement.Result
	err   error
	calls int
	last  entitlement.Request
}

func (f *fakeChecker) CheckEligibility(_ context.Context, _ string, req entitlement.Request) (*entitlement.Result, error) {
	f.calls++
	f.last = req
	return f.res, f.err
}

type fakeRecorder struct {
	res   *records.Result
	err   error
	calls int
	last  records.Request
}

func (f *fakeRecorder) RecordDownload(_ context.Context, _ string, req records.Request) (*records.Result, error) {
	f.calls++
	f.last = req
	return f.res, f.err
}

type fakeLookup struct {
	asset *assets.Asset
	err   error
	calls int
}

func (f *fakeLookup) GetAssetByID(_ context.Context, _, _ string) (*assets.Asset, error) {
	f.calls++
	return f.asset, f.err
}

type savedFile struct {
	url      string
	filename string
	calls    int
}

type fixture struct {
	orch     *Orchestrator
	checker  *fakeChecker
	recorder *fakeRecorder
	lookup   *fakeLookup
	notes    *notify.Recorder
	saved    *savedFile
	success  *int
}

func newFixture(t *testing.T, authenticated bool) *fixture {
	t.Helper()

	checker := &fakeChecker{res: &entitlement.Result{CanDownload: true, IsFree: true}}
	recorder := &fakeRecorder{res: &records.Result{FileURL: "https://cdn.example.com/low/a1.jpg"}}
	lookup := &fakeLookup{asset: &assets.Asset{ID: "a1", Title: "Sunset Loom"}}
	notes := notify.NewRecorder()
	saved := &savedFile{}
	successCalls := 0

	store := memorystore.NewSessionStore()
	if authenticated {
		ctx := context.Background()
		if err := store.SetToken(ctx, "tok-1"); err != nil {
			t.Fatalf("set token: %v", err)
		}
		if err := store.SetUser(ctx, session.User{ID: "u1", Email: "u1@example.com"}); err != nil {
			t.Fatalf("set user: %v", err)
		}
	}

	orch, err := NewOrchestrator(Deps{
		Entitlement: checker,
		Recorder:    recorder,
		Assets:      lookup,
		Session:     store,
		Notifier:    notes,
		Platform: PlatformFuncs{FileSaveFunc: func(url, filename string) {
			saved.calls++
			saved.url = url
			saved.filename = filename
		}},
		OnSuccess: func(context.Context) { successCalls++ },
	}, nil)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return &fixture{orch: orch, checker: checker, recorder: recorder, lookup: lookup,
		notes: notes, saved: saved, success: &successCalls}
}

func stdAsset() assets.Asset {
	return assets.Asset{ID: "a1", Title: "Sunset Loom", Tier: assets.TierStandard}
}

func premiumAsset() assets.Asset {
	return assets.Asset{ID: "a2", Title: "Warp Detail", Tier: assets.TierPremium}
}

func TestUnauthenticatedShortCircuits(t *testing.T) {
	f := newFixture(t, false)

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateLoginRequired {
		t.Fatalf("expected login_required, got %s", state)
	}
	if f.checker.calls != 0 || f.recorder.calls != 0 {
		t.Fatalf("expected zero network calls, got check=%d record=%d", f.checker.calls, f.recorder.calls)
	}
	last, ok := f.notes.Last()
	if !ok || last.Title != "Login Required" {
		t.Fatalf("expected login notification, got %+v", last)
	}
}

func TestStandardAssetDownloadsFree(t *testing.T) {
	f := newFixture(t, true)

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDone {
		t.Fatalf("expected done, got %s", state)
	}
	if f.recorder.calls != 1 {
		t.Fatalf("expected one recording call, got %d", f.recorder.calls)
	}
	if !f.recorder.last.IsFree {
		t.Fatal("standard asset must record isFree=true")
	}
	if f.recorder.last.SubscriptionID != "" {
		t.Fatalf("free recording must not require a subscription id, got %q", f.recorder.last.SubscriptionID)
	}
	if f.saved.calls != 1 {
		t.Fatalf("expected one file save, got %d", f.saved.calls)
	}
	if *f.success != 1 {
		t.Fatalf("expected success callback once, got %d", *f.success)
	}
	last, _ := f.notes.Last()
	if last.Title != "Download Started" {
		t.Fatalf("expected success notification, got %+v", last)
	}
	if len(f.notes.All()) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(f.notes.All()))
	}
}

func TestQuotaDenialNeverRecords(t *testing.T) {
	f := newFixture(t, true)
	reset := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	f.checker.res = &entitlement.Result{
		CanDownload: false,
		Reason:      "daily quota limit exceeded",
		Quota:       &entitlement.QuotaInfo{RemainingToday: 0, DailyLimit: 10, ResetTime: reset},
	}

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDenied {
		t.Fatalf("expected denied, got %s", state)
	}
	if f.recorder.calls != 0 {
		t.Fatalf("denied attempt must never record, got %d calls", f.recorder.calls)
	}
	last, _ := f.notes.Last()
	if last.Title != "Credit Exceeded" {
		t.Fatalf("expected Credit Exceeded title, got %q", last.Title)
	}
	if !strings.Contains(last.Body, "2 Jan 2024") {
		t.Fatalf("expected formatted reset time in body, got %q", last.Body)
	}
	if last.Severity != notify.SeverityDestructive {
		t.Fatalf("expected destructive severity, got %s", last.Severity)
	}
}

func TestCheckerErrorReadsAsDenial(t *testing.T) {
	f := newFixture(t, true)
	f.checker.res = nil
	f.checker.err = errors.New("connection refused")

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDenied {
		t.Fatalf("expected denied, got %s", state)
	}
	if f.recorder.calls != 0 {
		t.Fatal("recording must not run after a failed eligibility check")
	}
	last, _ := f.notes.Last()
	if last.Title != "Download Failed" {
		t.Fatalf("expected generic failure title, got %q", last.Title)
	}
}

func TestLowCreditAdvisoryPrecedesRecording(t *testing.T) {
	f := newFixture(t, true)
	f.checker.res = &entitlement.Result{
		CanDownload: true,
		IsFree:      true,
		Quota:       &entitlement.QuotaInfo{RemainingToday: 2, DailyLimit: 10},
	}

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDone {
		t.Fatalf("expected done, got %s", state)
	}
	all := f.notes.All()
	if len(all) != 2 {
		t.Fatalf("expected advisory plus success, got %d notifications", len(all))
	}
	if all[0].Title != "Credit Warning" {
		t.Fatalf("expected Credit Warning first, got %q", all[0].Title)
	}
	if all[0].Severity != notify.SeverityDefault {
		t.Fatal("advisory must be non-blocking default severity")
	}
	if f.recorder.calls != 1 {
		t.Fatalf("advisory must not block recording, got %d calls", f.recorder.calls)
	}
}

func TestPremiumWithoutSubscriptionFailsBeforeRecording(t *testing.T) {
	f := newFixture(t, true)
	f.checker.res = &entitlement.Result{CanDownload: true, IsFree: false}

	state, err := f.orch.Download(context.Background(), premiumAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateFailed {
		t.Fatalf("expected failed, got %s", state)
	}
	if f.recorder.calls != 0 {
		t.Fatal("paid attempt without a subscription id must not call the recorder")
	}
	last, _ := f.notes.Last()
	if last.Title != "Subscription Required" {
		t.Fatalf("expected Subscription Required, got %q", last.Title)
	}
}

func TestPremiumUsesEligibilitySubscriptionID(t *testing.T) {
	f := newFixture(t, true)
	f.checker.res = &entitlement.Result{CanDownload: true, SubscriptionID: "sub-9"}

	state, err := f.orch.Download(context.Background(), premiumAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDone {
		t.Fatalf("expected done, got %s", state)
	}
	if f.recorder.last.SubscriptionID != "sub-9" {
		t.Fatalf("expected subscription id sub-9, got %q", f.recorder.last.SubscriptionID)
	}
	if f.recorder.last.IsFree {
		t.Fatal("premium asset must record isFree=false")
	}
}

func TestRecorderWithoutFileReferenceFails(t *testing.T) {
	f := newFixture(t, true)
	f.recorder.res = &records.Result{Download: &records.Download{Asset: &records.RecordedAsset{Title: "Sunset Loom"}}}

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateFailed {
		t.Fatalf("expected failed, got %s", state)
	}
	last, _ := f.notes.Last()
	if !strings.Contains(last.Body, "File URL not available") {
		t.Fatalf("expected file-url failure body, got %q", last.Body)
	}
	if f.lookup.calls != 0 {
		t.Fatal("resolution must not run when the recorder yields no file reference")
	}
}

func TestCanonicalSourceWinsOverRecorderURL(t *testing.T) {
	f := newFixture(t, true)
	f.lookup.asset = &assets.Asset{
		ID:      "a1",
		Title:   "Sunset Loom",
		Src:     "https://cdn.example.com/full/a1.png",
		FileURL: "https://cdn.example.com/generic/a1.png",
	}

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDone {
		t.Fatalf("expected done, got %s", state)
	}
	if f.saved.url != "https://cdn.example.com/full/a1.png" {
		t.Fatalf("expected canonical src to win, got %q", f.saved.url)
	}
}

func TestLookupFailureFallsBackToNothing(t *testing.T) {
	f := newFixture(t, true)
	f.lookup.asset = nil
	f.lookup.err = errors.New("boom")

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateFailed {
		t.Fatalf("expected failed, got %s", state)
	}
	last, _ := f.notes.Last()
	if !strings.Contains(last.Body, "Unable to get asset information") {
		t.Fatalf("expected asset-information failure, got %q", last.Body)
	}
	if f.saved.calls != 0 {
		t.Fatal("file save must not trigger after a resolution failure")
	}
}

func TestEmptyLookupFallsBackToRecorderURL(t *testing.T) {
	f := newFixture(t, true)
	f.lookup.asset = &assets.Asset{ID: "a1", Title: "Sunset Loom"}

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateDone {
		t.Fatalf("expected done, got %s", state)
	}
	if f.saved.url != "https://cdn.example.com/low/a1.jpg" {
		t.Fatalf("expected recorder url fallback, got %q", f.saved.url)
	}
}

func TestReentrantInvocationIsBlocked(t *testing.T) {
	f := newFixture(t, true)
	f.orch.inFlight.Store(true)

	if _, err := f.orch.Download(context.Background(), stdAsset()); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if f.checker.calls != 0 {
		t.Fatal("blocked attempt must not reach the network")
	}
}

func TestInFlightFlagClearsAfterFailure(t *testing.T) {
	f := newFixture(t, true)
	f.recorder.res = nil
	f.recorder.err = errors.New("recording exploded")

	state, err := f.orch.Download(context.Background(), stdAsset())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if state != StateFailed {
		t.Fatalf("expected failed, got %s", state)
	}
	if f.orch.Downloading() {
		t.Fatal("in-flight flag must clear regardless of outcome")
	}
	last, _ := f.notes.Last()
	if !strings.Contains(last.Body, "recording exploded") {
		t.Fatalf("expected error message surfaced, got %q", last.Body)
	}
}

func TestDeriveFilename(t *testing.T) {
	cases := []struct {
		title, id, url, want string
	}{
		{"Sunset Loom", "a1", "https://cdn.example.com/full/a1.jpg", "Sunset Loom.jpg"},
		{"", "a1", "https://cdn.example.com/full/a1.jpg", "asset-a1.jpg"},
		{"photo.JPG", "a1", "https://cdn.example.com/full/a1.jpg", "photo.JPG"},
		{"  ", "a9", "", "asset-a9"},
		{"Warp Detail", "a2", "https://cdn.example.com/a2.png?sig=abc", "Warp Detail.png"},
	}
	for _, tc := range cases {
		if got := deriveFilename(tc.title, tc.id, tc.url); got != tc.want {
			t.Errorf("deriveFilename(%q, %q, %q) = %q, want %q", tc.title, tc.id, tc.url, got, tc.want)
		}
	}
}
