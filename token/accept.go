package tokenkit

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// AcceptConfig configures verification of bearer tokens (verify-only mode),
// either self-issued or from an upstream identity provider.
type AcceptConfig struct {
	Issuer   string
	Audience string // Expected audience for this service (single value)
	JWKSURL  string
	Skew     time.Duration
}

func (c *AcceptConfig) defaulted() AcceptConfig {
	out := AcceptConfig{Skew: 2 * time.Minute}
	if c != nil {
		out.Issuer = c.Issuer
		out.Audience = c.Audience
		out.JWKSURL = c.JWKSURL
		if c.Skew > 0 {
			out.Skew = c.Skew
		}
	}
	return out
}

// Claims captures the identity fields the download service reads from a
// verified token.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Acceptor verifies bearer tokens against the configured issuer and keys.
type Acceptor struct {
	cfg    AcceptConfig
	keySet jwk.Set
}

// NewAcceptor builds an acceptor with a static key set. Pass nil to fetch
// keys per call from the configured JWKS URL.
func NewAcceptor(cfg *AcceptConfig, keySet jwk.Set) *Acceptor {
	return &Acceptor{cfg: cfg.defaulted(), keySet: keySet}
}

func (a *Acceptor) keys(ctx context.Context) (jwk.Set, error) {
	if a.keySet != nil {
		return a.keySet, nil
	}
	if a.cfg.JWKSURL == "" {
		return nil, errors.New("tokenkit: missing jwks url")
	}
	return jwk.Fetch(ctx, a.cfg.JWKSURL)
}

// Verify validates the raw token and extracts identity claims.
func (a *Acceptor) Verify(ctx context.Context, raw string) (*Claims, error) {
	if a == nil {
		return nil, errors.New("tokenkit: missing acceptor")
	}
	if raw == "" {
		return nil, errors.New("tokenkit: empty token")
	}
	keys, err := a.keys(ctx)
	if err != nil {
		return nil, err
	}
	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(a.cfg.Skew),
		jwt.WithContext(ctx),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	token, err := jwt.ParseString(raw, opts...)
	if err != nil {
		return nil, err
	}
	claims := &Claims{Subject: token.Subject()}
	if rawEmail, ok := token.Get("email"); ok {
		if email, ok := rawEmail.(string); ok {
			claims.Email = email
		}
	}
	if rawName, ok := token.Get("name"); ok {
		if name, ok := rawName.(string); ok {
			claims.Name = name
		}
	}
	return claims, nil
}
