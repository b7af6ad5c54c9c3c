// Package filelink issues short-lived opaque tokens that resolve to a
// downloadable artifact. The recording endpoint returns links of the form
// /files/{token} so the canonical storage URL is never exposed to clients.
package filelink

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/mr-tron/base58"
)

// Target is what a link token resolves to.
type Target struct {
	AssetID  string `json:"assetId"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// Store persists link tokens until they expire or are consumed.
type Store interface {
	Put(ctx context.Context, token string, t Target, ttl time.Duration) error
	Get(ctx context.Context, token string) (Target, bool, error)
	Del(ctx context.Context, token string) error
}

// NewToken returns a fresh URL-safe token (16 random bytes, base58).
func NewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base58.Encode(buf), nil
}
