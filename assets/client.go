package assets

import (
	"context"
	"net/url"
	"strings"

	"github.com/open-rails/downloadkit/transport"
)

const defaultAssetsPath = "/assets"

// Client fetches asset metadata from the remote catalog over REST.
type Client struct {
	rest *transport.Client
	path string
}

// NewClient wraps a transport client. path defaults to /assets.
func NewClient(rest *transport.Client, path string) *Client {
	if strings.TrimSpace(path) == "" {
		path = defaultAssetsPath
	}
	return &Client{rest: rest, path: strings.TrimRight(path, "/")}
}

func (c *Client) GetAssetByID(ctx context.Context, bearer, assetID string) (*Asset, error) {
	if strings.TrimSpace(assetID) == "" {
		return nil, ErrMissingAssetID
	}
	var out Asset
	if err := c.rest.GetJSON(ctx, c.path+"/"+url.PathEscape(assetID), bearer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
