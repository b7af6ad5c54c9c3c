package subscription

import (
	"context"
	"sync"
)

// Cache holds the loaded plan catalog and the user's subscription. Reads are
// concurrent-safe; a refresh replaces the cached state atomically from the
// reader's point of view (last write wins). Nothing mutates the cache except
// its own load/refresh operations.
type Cache struct {
	loader Loader

	mu    sync.RWMutex
	plans []Plan
	sub   *UserSubscription
}

func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Load fetches the plan catalog and the user's subscription concurrently.
// A missing subscription is not an error.
func (c *Cache) Load(ctx context.Context, bearer, userID string) error {
	var (
		wg       sync.WaitGroup
		plans    []Plan
		sub      *UserSubscription
		plansErr error
		subErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		plans, plansErr = c.loader.GetAllPlans(ctx, bearer)
	}()
	go func() {
		defer wg.Done()
		sub, subErr = c.loader.GetUserSubscription(ctx, bearer, userID)
	}()
	wg.Wait()
	if plansErr != nil {
		return plansErr
	}
	if subErr != nil {
		return subErr
	}

	c.mu.Lock()
	c.plans = plans
	c.sub = attachPlan(sub, plans)
	c.mu.Unlock()
	return nil
}

// RefreshSubscription refetches only the user's subscription, keeping the
// already-loaded plan catalog.
func (c *Cache) RefreshSubscription(ctx context.Context, bearer, userID string) error {
	sub, err := c.loader.GetUserSubscription(ctx, bearer, userID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sub = attachPlan(sub, c.plans)
	c.mu.Unlock()
	return nil
}

// Plans returns the cached plan catalog.
func (c *Cache) Plans() []Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Current returns the cached subscription, nil when the user has none.
func (c *Cache) Current() *UserSubscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sub == nil {
		return nil
	}
	cp := *c.sub
	return &cp
}

// RemainingStandard is the cached subscription's unused standard credits,
// clamped at zero; zero when no subscription is cached.
func (c *Cache) RemainingStandard() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub.RemainingStandard()
}

// RemainingPremium is the cached subscription's unused premium credits.
func (c *Cache) RemainingPremium() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub.RemainingPremium()
}

// attachPlan resolves the subscription's plan from the catalog when the
// service returned only a plan id.
func attachPlan(sub *UserSubscription, plans []Plan) *UserSubscription {
	if sub == nil || sub.Plan != nil {
		return sub
	}
	for i := range plans {
		if plans[i].ID == sub.PlanID {
			cp := *sub
			p := plans[i]
			cp.Plan = &p
			return &cp
		}
	}
	return sub
}
