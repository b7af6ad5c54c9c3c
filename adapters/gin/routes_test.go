package dlgin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/open-rails/downloadkit/assets"
	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/ledger"
	memoryquota "github.com/open-rails/downloadkit/quota/memory"
	"github.com/open-rails/downloadkit/records"
	"github.com/open-rails/downloadkit/service"
	memorystore "github.com/open-rails/downloadkit/storage/memory"
	"github.com/open-rails/downloadkit/subscription"
	tokenkit "github.com/open-rails/downloadkit/token"
)

type stubCatalog struct {
	assets map[string]*assets.Asset
	plans  map[string]*subscription.Plan
}

func (s *stubCatalog) GetAsset(_ context.Context, id string) (*assets.Asset, error) {
	return s.assets[id], nil
}

func (s *stubCatalog) GetPlan(_ context.Context, id string) (*subscription.Plan, error) {
	return s.plans[id], nil
}

func (s *stubCatalog) ListPlans(context.Context) ([]subscription.Plan, error) {
	var out []subscription.Plan
	for _, p := range s.plans {
		out = append(out, *p)
	}
	return out, nil
}

type stubLedger struct {
	inserted []ledger.DownloadRecord
}

func (s *stubLedger) GetActiveSubscription(context.Context, string) (*subscription.UserSubscription, error) {
	return nil, nil
}

func (s *stubLedger) GetSubscription(context.Context, string) (*subscription.UserSubscription, error) {
	return nil, nil
}

func (s *stubLedger) ActivatePlan(_ context.Context, userID string, plan subscription.Plan, now time.Time) (*subscription.UserSubscription, error) {
	return &subscription.UserSubscription{
		ID: "sub-new", UserID: userID, PlanID: plan.ID,
		Status: subscription.StatusActive, StartsAt: now, EndsAt: now.AddDate(0, 0, plan.DurationDays),
	}, nil
}

func (s *stubLedger) CancelSubscription(context.Context, string) error { return nil }

func (s *stubLedger) ConsumeCredit(context.Context, string, bool, int) error {
	return ledger.ErrNoCredit
}

func (s *stubLedger) InsertDownload(_ context.Context, rec ledger.DownloadRecord) (ledger.DownloadRecord, error) {
	s.inserted = append(s.inserted, rec)
	return rec, nil
}

type testEnv struct {
	router *gin.Engine
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := tokenkit.NewRSASigner(2048, "test")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	key, err := jwk.FromRaw(signer.PublicKey())
	if err != nil {
		t.Fatalf("jwk: %v", err)
	}
	_ = key.Set(jwk.KeyIDKey, signer.KID())
	_ = key.Set(jwk.AlgorithmKey, jwa.RS256)
	set := jwk.NewSet()
	_ = set.AddKey(key)
	acceptor := tokenkit.NewAcceptor(&tokenkit.AcceptConfig{Issuer: "test-issuer"}, set)

	raw, err := tokenkit.IssueAccessToken(context.Background(), signer, "test-issuer",
		"u1", "u1@example.com", "User One", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	links := memorystore.NewLinkStore()
	t.Cleanup(func() { _ = links.Close() })
	svc, err := service.New(
		&stubCatalog{
			assets: map[string]*assets.Asset{
				"std-1": {ID: "std-1", Title: "Cliff Rocks", Tier: assets.TierStandard, Src: "https://cdn.example.com/std-1.zip"},
			},
			plans: map[string]*subscription.Plan{
				"plan-lite": {ID: "plan-lite", Name: "Lite", Tier: subscription.TierLite, DurationDays: 30},
			},
		},
		&stubLedger{}, memoryquota.New(), links, nil, nil, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	r := gin.New()
	Register(r, Options{Service: svc, Acceptor: acceptor})
	return &testEnv{router: r, token: raw}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCheckRequiresAuth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/downloads/check", "", entitlement.Request{AssetID: "std-1"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCheckStandardAsset(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/downloads/check", e.token, entitlement.Request{AssetID: "std-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res entitlement.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.CanDownload || !res.IsFree {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCheckUnknownAssetIs404(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/downloads/check", e.token, entitlement.Request{AssetID: "missing"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRecordThenRedeemFileLink(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/downloads", e.token, records.Request{AssetID: "std-1", IsFree: true})
	if w.Code != http.StatusOK {
		t.Fatalf("record status = %d, body %s", w.Code, w.Body.String())
	}
	var res records.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(res.FileURL, "/files/") {
		t.Fatalf("file url = %q", res.FileURL)
	}

	redeem := e.do(t, http.MethodGet, res.FileURL, "", nil)
	if redeem.Code != http.StatusFound {
		t.Fatalf("redeem status = %d, want 302", redeem.Code)
	}
	if loc := redeem.Header().Get("Location"); loc != "https://cdn.example.com/std-1.zip" {
		t.Fatalf("location = %q", loc)
	}
}

func TestExpiredLinkIs404(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/files/not-a-token", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestPlansAreAnonymous(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/plans", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var plans []subscription.Plan
	if err := json.Unmarshal(w.Body.Bytes(), &plans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plans = %+v", plans)
	}
}

func TestSubscriptionReadIsOwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/subscriptions/someone-else", e.token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestCurrentUserFromClaims(t *testing.T) {
	e := newTestEnv(t)
	gin.SetMode(gin.TestMode)
	// Reuse the mounted auth middleware through a probe route on a fresh
	// router sharing the env's acceptor via an issued token.
	var view UserView
	var authed bool
	e.router.GET("/probe", func(c *gin.Context) {
		view, authed = CurrentUser(c)
		c.Status(http.StatusOK)
	})
	w := e.do(t, http.MethodGet, "/probe", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if authed || view.Source != "none" {
		t.Fatalf("anonymous probe: %+v", view)
	}
}
