// Package transport provides the minimal JSON REST client shared by the
// remote-service wrappers. Authorization is explicit per request: callers pass
// the bearer token with every call, so no shared client state is ever mutated.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client is a JSON client bound to a single service base URL.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  oauth2.TokenSource // optional service-to-service credentials
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client (timeouts, transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// WithTokenSource supplies machine credentials used whenever a request carries
// no explicit bearer token (server-to-server calls).
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("transport: base URL is empty")
	}
	c := &Client{baseURL: trimmed, httpc: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientCredentials builds a TokenSource from an OAuth2 client-credentials
// grant, for hosts that call the asset service on their own behalf.
func ClientCredentials(ctx context.Context, tokenURL, clientID, clientSecret string, scopes []string) oauth2.TokenSource {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return cfg.TokenSource(ctx)
}

// StaticToken wraps a fixed bearer token as a TokenSource.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("transport: api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("transport: api error %d", e.Status)
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path, bearer string, out any) error {
	return c.do(ctx, http.MethodGet, path, bearer, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path, bearer string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, bearer, in, out)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req, bearer); err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// authorize sets the Authorization header: the explicit per-request bearer
// wins; the configured token source is the fallback; otherwise anonymous.
func (c *Client) authorize(req *http.Request, bearer string) error {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
		return nil
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("transport: token source: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(b) == 0 {
		return ""
	}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &envelope) == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(b))
}
