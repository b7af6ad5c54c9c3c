package entitlement

import (
	"context"
	"strings"

	"github.com/open-rails/downloadkit/transport"
)

const defaultCheckPath = "/downloads/check"

// Client calls the remote eligibility service over REST.
type Client struct {
	rest *transport.Client
	path string
}

// NewClient wraps a transport client. path defaults to /downloads/check.
func NewClient(rest *transport.Client, path string) *Client {
	if strings.TrimSpace(path) == "" {
		path = defaultCheckPath
	}
	return &Client{rest: rest, path: path}
}

func (c *Client) CheckEligibility(ctx context.Context, bearer string, req Request) (*Result, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(req.AssetID) == "" {
		return nil, ErrMissingAssetID
	}
	var out Result
	if err := c.rest.PostJSON(ctx, c.path, bearer, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
