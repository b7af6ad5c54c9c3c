// Package service implements the server side of the download flow: quota
// accounting, credit consumption, download recording and short-lived file
// link issuance.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/downloadkit/assets"
	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/filelink"
	"github.com/open-rails/downloadkit/ledger"
	"github.com/open-rails/downloadkit/quota"
	"github.com/open-rails/downloadkit/records"
	"github.com/open-rails/downloadkit/subscription"
)

var (
	ErrAssetNotFound        = errors.New("service: asset not found")
	ErrPlanNotFound         = errors.New("service: plan not found")
	ErrSubscriptionMissing  = errors.New("an active subscription is required")
	ErrDailyQuotaExceeded   = errors.New("daily quota limit exceeded")
	ErrPremiumCreditSpent   = errors.New("premium credit limit exceeded, upgrade your plan")
	ErrStandardCreditSpent  = errors.New("standard credit limit exceeded, upgrade your plan")
	ErrSubscriptionRequired = errors.New("service: subscription id required")
)

// Catalog is the read side of the asset and plan store.
type Catalog interface {
	GetAsset(ctx context.Context, id string) (*assets.Asset, error)
	GetPlan(ctx context.Context, id string) (*subscription.Plan, error)
	ListPlans(ctx context.Context) ([]subscription.Plan, error)
}

// Ledger persists subscriptions, credits and download history.
type Ledger interface {
	GetActiveSubscription(ctx context.Context, userID string) (*subscription.UserSubscription, error)
	GetSubscription(ctx context.Context, id string) (*subscription.UserSubscription, error)
	ActivatePlan(ctx context.Context, userID string, plan subscription.Plan, now time.Time) (*subscription.UserSubscription, error)
	CancelSubscription(ctx context.Context, id string) error
	ConsumeCredit(ctx context.Context, subID string, premium bool, limit int) error
	InsertDownload(ctx context.Context, rec ledger.DownloadRecord) (ledger.DownloadRecord, error)
}

// Jobs enqueues background work after a recorded download.
// Implementations should be best-effort from the caller's point of view.
type Jobs interface {
	EnqueueAssetDownloaded(ctx context.Context, assetID string) error
}

// Config tunes service behavior. The zero value is usable.
type Config struct {
	// FreeDailyLimit caps free standard downloads per user per UTC day. Default 10.
	FreeDailyLimit int
	// LinkTTL bounds how long an issued file link stays valid. Default 15m.
	LinkTTL time.Duration
	// LinkPathPrefix is prepended to issued link tokens. Default "/files/".
	LinkPathPrefix string
}

func (c *Config) defaulted() Config {
	out := Config{FreeDailyLimit: 10, LinkTTL: 15 * time.Minute, LinkPathPrefix: "/files/"}
	if c == nil {
		return out
	}
	if c.FreeDailyLimit > 0 {
		out.FreeDailyLimit = c.FreeDailyLimit
	}
	if c.LinkTTL > 0 {
		out.LinkTTL = c.LinkTTL
	}
	if c.LinkPathPrefix != "" {
		out.LinkPathPrefix = c.LinkPathPrefix
	}
	return out
}

// Service answers eligibility checks and records downloads.
type Service struct {
	cfg     Config
	catalog Catalog
	ledger  Ledger
	counter quota.Counter
	links   filelink.Store
	jobs    Jobs
	log     logrus.FieldLogger

	now func() time.Time
}

func New(catalog Catalog, ledger Ledger, counter quota.Counter, links filelink.Store, jobs Jobs, log logrus.FieldLogger, cfg *Config) (*Service, error) {
	switch {
	case catalog == nil:
		return nil, errors.New("service: catalog is required")
	case ledger == nil:
		return nil, errors.New("service: ledger is required")
	case counter == nil:
		return nil, errors.New("service: quota counter is required")
	case links == nil:
		return nil, errors.New("service: file link store is required")
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Service{
		cfg:     cfg.defaulted(),
		catalog: catalog,
		ledger:  ledger,
		counter: counter,
		links:   links,
		jobs:    jobs,
		log:     log,
		now:     time.Now,
	}, nil
}

// CheckEligibility answers whether the user may download the asset right now.
// A negative answer never consumes anything; the Reason text is what clients
// classify and surface.
func (s *Service) CheckEligibility(ctx context.Context, req entitlement.Request) (*entitlement.Result, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.AssetID) == "" {
		return nil, errors.New("service: user id and asset id required")
	}
	asset, err := s.catalog.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, fmt.Errorf("service: load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	if !asset.IsPremium() {
		return s.checkFree(ctx, req.UserID)
	}
	return s.checkPremium(ctx, req.UserID)
}

func (s *Service) checkFree(_ context.Context, userID string) (*entitlement.Result, error) {
	used, err := s.counter.Used(userID)
	if err != nil {
		return nil, fmt.Errorf("service: read quota: %w", err)
	}
	q := s.quotaSnapshot(used)
	if q.RemainingToday <= 0 {
		return &entitlement.Result{
			CanDownload: false,
			Reason:      ErrDailyQuotaExceeded.Error(),
			IsFree:      true,
			Quota:       q,
		}, nil
	}
	return &entitlement.Result{CanDownload: true, IsFree: true, Quota: q}, nil
}

func (s *Service) checkPremium(ctx context.Context, userID string) (*entitlement.Result, error) {
	sub, err := s.ledger.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: load subscription: %w", err)
	}
	if sub == nil || !sub.IsActive(s.now()) {
		return &entitlement.Result{CanDownload: false, Reason: ErrSubscriptionMissing.Error()}, nil
	}
	plan, err := s.catalog.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("service: load plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if plan.PremiumLimit-sub.PremiumUsed <= 0 {
		return &entitlement.Result{
			CanDownload:    false,
			Reason:         ErrPremiumCreditSpent.Error(),
			SubscriptionID: sub.ID,
		}, nil
	}
	return &entitlement.Result{CanDownload: true, SubscriptionID: sub.ID}, nil
}

func (s *Service) quotaSnapshot(used int) *entitlement.QuotaInfo {
	remaining := s.cfg.FreeDailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return &entitlement.QuotaInfo{
		RemainingToday: remaining,
		DailyLimit:     s.cfg.FreeDailyLimit,
		ResetTime:      quota.NextReset(s.now()),
	}
}

// RecordDownload consumes the credit or daily quota and appends the download
// to the history, then issues a short-lived file link. Consumption happens
// before the history insert, so a failed insert can never hand out a free
// download.
func (s *Service) RecordDownload(ctx context.Context, req records.Request) (*records.Result, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.AssetID) == "" {
		return nil, errors.New("service: user id and asset id required")
	}
	asset, err := s.catalog.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, fmt.Errorf("service: load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	// Free versus paid is decided by the asset tier, never by the client's
	// flag, so a premium asset cannot be recorded against the free quota.
	isFree := !asset.IsPremium()
	if isFree {
		allowed, _, err := s.counter.Consume(req.UserID, s.cfg.FreeDailyLimit)
		if err != nil {
			return nil, fmt.Errorf("service: consume quota: %w", err)
		}
		if !allowed {
			return nil, ErrDailyQuotaExceeded
		}
	} else {
		if err := s.consumeCredit(ctx, req, true); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	row, err := s.ledger.InsertDownload(ctx, ledger.DownloadRecord{
		UserID:         req.UserID,
		AssetID:        req.AssetID,
		SubscriptionID: req.SubscriptionID,
		IsFree:         isFree,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("service: record download: %w", err)
	}

	fileURL := s.issueLink(ctx, asset)
	s.log.WithFields(logrus.Fields{
		"user_id":  req.UserID,
		"asset_id": req.AssetID,
		"free":     isFree,
	}).Info("download recorded")

	if s.jobs != nil {
		if err := s.jobs.EnqueueAssetDownloaded(ctx, req.AssetID); err != nil {
			s.log.WithError(err).WithField("asset_id", req.AssetID).Warn("enqueue counter job failed")
		}
	}

	return &records.Result{
		Download: &records.Download{
			ID:        row.ID.String(),
			Asset:     &records.RecordedAsset{Title: asset.Title, MainFile: asset.MainFile},
			CreatedAt: row.CreatedAt,
		},
		FileURL: fileURL,
	}, nil
}

func (s *Service) consumeCredit(ctx context.Context, req records.Request, premium bool) error {
	if strings.TrimSpace(req.SubscriptionID) == "" {
		return ErrSubscriptionRequired
	}
	sub, err := s.ledger.GetSubscription(ctx, req.SubscriptionID)
	if err != nil {
		return fmt.Errorf("service: load subscription: %w", err)
	}
	if sub == nil || sub.UserID != req.UserID || !sub.IsActive(s.now()) {
		return ErrSubscriptionMissing
	}
	plan, err := s.catalog.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return fmt.Errorf("service: load plan: %w", err)
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	limit := plan.StandardLimit
	if premium {
		limit = plan.PremiumLimit
	}
	if err := s.ledger.ConsumeCredit(ctx, sub.ID, premium, limit); err != nil {
		// Only an exhausted allowance is a denial; anything else is an
		// infrastructure failure and must not read as one.
		if !errors.Is(err, ledger.ErrNoCredit) {
			return fmt.Errorf("service: consume credit: %w", err)
		}
		if premium {
			return ErrPremiumCreditSpent
		}
		return ErrStandardCreditSpent
	}
	return nil
}

// issueLink stores a tokenized pointer to the asset's canonical artifact and
// returns the path clients redeem. An asset with no artifact yields "".
func (s *Service) issueLink(ctx context.Context, asset *assets.Asset) string {
	url := asset.DownloadURL()
	if url == "" {
		return ""
	}
	tok, err := filelink.NewToken()
	if err != nil {
		s.log.WithError(err).Warn("file link token generation failed")
		return url
	}
	err = s.links.Put(ctx, tok, filelink.Target{
		AssetID:  asset.ID,
		URL:      url,
		Filename: asset.Title,
	}, s.cfg.LinkTTL)
	if err != nil {
		s.log.WithError(err).Warn("file link store failed")
		return url
	}
	return s.cfg.LinkPathPrefix + tok
}

// ResolveLink redeems a previously issued file link token.
func (s *Service) ResolveLink(ctx context.Context, token string) (filelink.Target, bool, error) {
	if strings.TrimSpace(token) == "" {
		return filelink.Target{}, false, errors.New("service: link token required")
	}
	return s.links.Get(ctx, token)
}

// GetAsset returns catalog metadata for one asset.
func (s *Service) GetAsset(ctx context.Context, id string) (*assets.Asset, error) {
	asset, err := s.catalog.GetAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// ListPlans returns all purchasable plans.
func (s *Service) ListPlans(ctx context.Context) ([]subscription.Plan, error) {
	return s.catalog.ListPlans(ctx)
}

// GetUserSubscription returns the user's active subscription with its plan
// attached, or nil when there is none.
func (s *Service) GetUserSubscription(ctx context.Context, userID string) (*subscription.UserSubscription, error) {
	sub, err := s.ledger.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: load subscription: %w", err)
	}
	if sub == nil {
		return nil, nil
	}
	plan, err := s.catalog.GetPlan(ctx, sub.PlanID)
	if err == nil && plan != nil {
		sub.Plan = plan
	}
	return sub, nil
}

// ActivatePlan starts a subscription on the given plan, superseding any
// active one.
func (s *Service) ActivatePlan(ctx context.Context, userID, planID string) (*subscription.UserSubscription, error) {
	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("service: load plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	sub, err := s.ledger.ActivatePlan(ctx, userID, *plan, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("service: activate plan: %w", err)
	}
	sub.Plan = plan
	s.log.WithFields(logrus.Fields{"user_id": userID, "plan_id": planID}).Info("plan activated")
	return sub, nil
}

// CancelSubscription cancels the user's active subscription. Cancelling when
// none is active is a no-op.
func (s *Service) CancelSubscription(ctx context.Context, userID string) error {
	sub, err := s.ledger.GetActiveSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: load subscription: %w", err)
	}
	if sub == nil {
		return nil
	}
	if err := s.ledger.CancelSubscription(ctx, sub.ID); err != nil {
		return fmt.Errorf("service: cancel subscription: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "subscription_id": sub.ID}).Info("subscription cancelled")
	return nil
}
