package subscription

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/open-rails/downloadkit/transport"
)

const (
	defaultPlansPath         = "/plans"
	defaultSubscriptionsPath = "/subscriptions"
)

var ErrMissingUserID = errors.New("subscription: user id is required")

// Client fetches plans and subscriptions from the remote service over REST.
type Client struct {
	rest      *transport.Client
	plansPath string
	subsPath  string
}

// NewClient wraps a transport client with default endpoint paths.
func NewClient(rest *transport.Client) *Client {
	return &Client{rest: rest, plansPath: defaultPlansPath, subsPath: defaultSubscriptionsPath}
}

func (c *Client) GetAllPlans(ctx context.Context, bearer string) ([]Plan, error) {
	var out []Plan
	if err := c.rest.GetJSON(ctx, c.plansPath, bearer, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUserSubscription returns the user's current subscription, or nil when the
// user has none. A 404 from the service is mapped to the nil non-error state.
func (c *Client) GetUserSubscription(ctx context.Context, bearer, userID string) (*UserSubscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	var out UserSubscription
	err := c.rest.GetJSON(ctx, c.subsPath+"/"+url.PathEscape(userID), bearer, &out)
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return nil, nil
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, nil
	}
	return &out, nil
}
