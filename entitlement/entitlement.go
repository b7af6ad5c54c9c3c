// Package entitlement answers whether a user may download an asset under their
// current subscription quota. The decision itself is computed remotely; this
// client returns the precomputed payload verbatim and does no quota math.
package entitlement

import (
	"context"
	"errors"
	"time"
)

// QuotaInfo is the snapshot of the caller's daily free-download quota.
type QuotaInfo struct {
	RemainingToday int       `json:"remainingToday"`
	DailyLimit     int       `json:"dailyLimit"`
	ResetTime      time.Time `json:"resetTime"`
}

// Result is the remote eligibility decision. It is transient: computed fresh
// on every check and never cached beyond the single request.
type Result struct {
	CanDownload    bool       `json:"canDownload"`
	Reason         string     `json:"reason,omitempty"`
	IsFree         bool       `json:"isFree"`
	SubscriptionID string     `json:"subscriptionId,omitempty"`
	Quota          *QuotaInfo `json:"quotaInfo,omitempty"`
}

// Request identifies the attempt being checked. SubscriptionID is optional
// and, when present, must belong to the calling user.
type Request struct {
	UserID         string `json:"userId"`
	AssetID        string `json:"assetId"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

var (
	ErrMissingUserID  = errors.New("entitlement: user id is required")
	ErrMissingAssetID = errors.New("entitlement: asset id is required")
)

// Checker checks download eligibility. Read-only, no side effects.
type Checker interface {
	CheckEligibility(ctx context.Context, bearer string, req Request) (*Result, error)
}
