// Package subscription holds the plan catalog and the user's current
// subscription state, with derived remaining-credit counts. State is loaded
// on demand and refreshed explicitly; there is no polling.
package subscription

import (
	"context"
	"time"
)

// Tier is the plan tier.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierLite    Tier = "LITE"
	TierPremium Tier = "PREMIUM"
)

// Status is the subscription lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// Plan is immutable reference data describing a purchasable subscription.
type Plan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Tier          Tier    `json:"tier"`
	Price         float64 `json:"price"`
	StandardLimit int     `json:"standardLimit"`
	PremiumLimit  int     `json:"premiumLimit"`
	DurationDays  int     `json:"durationDays"`
}

// UserSubscription is a user's enrollment in a plan. Superseded, never
// deleted: at most one subscription per user is ACTIVE at a time.
type UserSubscription struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PlanID       string    `json:"planId"`
	Plan         *Plan     `json:"plan,omitempty"`
	Status       Status    `json:"status"`
	StartsAt     time.Time `json:"startsAt"`
	EndsAt       time.Time `json:"endsAt"`
	StandardUsed int       `json:"standardUsed"`
	PremiumUsed  int       `json:"premiumUsed"`
}

// IsActive reports whether the subscription is ACTIVE and unexpired at now.
func (s *UserSubscription) IsActive(now time.Time) bool {
	if s == nil || s.Status != StatusActive {
		return false
	}
	return s.EndsAt.IsZero() || now.Before(s.EndsAt)
}

// RemainingStandard returns unused standard credits, clamped at zero.
// Zero when the plan is unknown.
func (s *UserSubscription) RemainingStandard() int {
	if s == nil || s.Plan == nil {
		return 0
	}
	return clamp(s.Plan.StandardLimit - s.StandardUsed)
}

// RemainingPremium returns unused premium credits, clamped at zero.
func (s *UserSubscription) RemainingPremium() int {
	if s == nil || s.Plan == nil {
		return 0
	}
	return clamp(s.Plan.PremiumLimit - s.PremiumUsed)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Loader fetches subscription state from the remote service. A nil
// subscription with nil error is the valid anonymous/not-yet-subscribed state.
type Loader interface {
	GetAllPlans(ctx context.Context, bearer string) ([]Plan, error)
	GetUserSubscription(ctx context.Context, bearer, userID string) (*UserSubscription, error)
}
