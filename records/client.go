package records

import (
	"context"
	"strings"

	"github.com/open-rails/downloadkit/transport"
)

const defaultRecordPath = "/downloads"

// Client calls the remote recording endpoint over REST.
type Client struct {
	rest *transport.Client
	path string
}

// NewClient wraps a transport client. path defaults to /downloads.
func NewClient(rest *transport.Client, path string) *Client {
	if strings.TrimSpace(path) == "" {
		path = defaultRecordPath
	}
	return &Client{rest: rest, path: path}
}

func (c *Client) RecordDownload(ctx context.Context, bearer string, req Request) (*Result, error) {
	var out Result
	if err := c.rest.PostJSON(ctx, c.path, bearer, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
