package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/open-rails/downloadkit/assets"
	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/records"
	"github.com/open-rails/downloadkit/subscription"
)

// TestBackend answers the download REST contract with scriptable responses,
// so client-side flows can run against a real HTTP round trip.
type TestBackend struct {
	server *httptest.Server
	mu     sync.Mutex

	// Scriptable responses. A zero Status means 200 with the paired body.
	CheckResult  *entitlement.Result
	CheckStatus  int
	CheckError   string
	RecordResult *records.Result
	RecordStatus int
	RecordError  string

	Assets       map[string]*assets.Asset
	Plans        []subscription.Plan
	Subscription *subscription.UserSubscription

	// Call counters, for ordering assertions.
	CheckCalls  int
	RecordCalls int
	AssetCalls  int
}

// NewTestBackend starts the backend. Call Close() when done.
func NewTestBackend() *TestBackend {
	b := &TestBackend{Assets: map[string]*assets.Asset{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /downloads/check", b.handleCheck)
	mux.HandleFunc("POST /downloads", b.handleRecord)
	mux.HandleFunc("GET /assets/{id}", b.handleAsset)
	mux.HandleFunc("GET /plans", b.handlePlans)
	mux.HandleFunc("GET /subscriptions/{userId}", b.handleSubscription)
	b.server = httptest.NewServer(mux)
	return b
}

// URL returns the backend's base URL.
func (b *TestBackend) URL() string { return b.server.URL }

// Close shuts down the test server.
func (b *TestBackend) Close() { b.server.Close() }

func (b *TestBackend) handleCheck(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.CheckCalls++
	status, msg, res := b.CheckStatus, b.CheckError, b.CheckResult
	b.mu.Unlock()
	if status != 0 {
		writeError(w, status, msg)
		return
	}
	if res == nil {
		res = &entitlement.Result{CanDownload: true, IsFree: true}
	}
	writeJSON(w, res)
}

func (b *TestBackend) handleRecord(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.RecordCalls++
	status, msg, res := b.RecordStatus, b.RecordError, b.RecordResult
	b.mu.Unlock()
	if status != 0 {
		writeError(w, status, msg)
		return
	}
	if res == nil {
		res = &records.Result{}
	}
	writeJSON(w, res)
}

func (b *TestBackend) handleAsset(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.AssetCalls++
	a := b.Assets[r.PathValue("id")]
	b.mu.Unlock()
	if a == nil {
		writeError(w, http.StatusNotFound, "asset_not_found")
		return
	}
	writeJSON(w, a)
}

func (b *TestBackend) handlePlans(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	plans := b.Plans
	b.mu.Unlock()
	if plans == nil {
		plans = []subscription.Plan{}
	}
	writeJSON(w, plans)
}

func (b *TestBackend) handleSubscription(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	sub := b.Subscription
	b.mu.Unlock()
	if sub == nil || !strings.EqualFold(sub.UserID, r.PathValue("userId")) {
		writeError(w, http.StatusNotFound, "no_subscription")
		return
	}
	writeJSON(w, sub)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
