package tokenkit

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

func newSignerAndKeys(t *testing.T) (*RSASigner, jwk.Set) {
	t.Helper()
	s, err := NewRSASigner(2048, "test-key")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	key, err := jwk.FromRaw(s.PublicKey())
	if err != nil {
		t.Fatalf("jwk: %v", err)
	}
	_ = key.Set(jwk.KeyIDKey, s.KID())
	_ = key.Set(jwk.AlgorithmKey, jwa.RS256)
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		t.Fatalf("add key: %v", err)
	}
	return s, set
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	s, keys := newSignerAndKeys(t)
	ctx := context.Background()

	raw, err := IssueAccessToken(ctx, s, "https://dl.example.com", "u1",
		"u1@example.com", "User One", []string{"downloadkit"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	a := NewAcceptor(&AcceptConfig{
		Issuer:   "https://dl.example.com",
		Audience: "downloadkit",
	}, keys)
	claims, err := a.Verify(ctx, raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("subject = %q, want u1", claims.Subject)
	}
	if claims.Email != "u1@example.com" || claims.Name != "User One" {
		t.Fatalf("identity claims not carried: %+v", claims)
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	s, keys := newSignerAndKeys(t)
	ctx := context.Background()

	raw, err := IssueAccessToken(ctx, s, "https://dl.example.com", "u1", "", "",
		[]string{"someone-else"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	a := NewAcceptor(&AcceptConfig{Issuer: "https://dl.example.com", Audience: "downloadkit"}, keys)
	if _, err := a.Verify(ctx, raw); err == nil {
		t.Fatal("expected audience mismatch")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s, keys := newSignerAndKeys(t)
	ctx := context.Background()

	raw, err := IssueAccessToken(ctx, s, "https://dl.example.com", "u1", "", "", nil, -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	a := NewAcceptor(&AcceptConfig{Issuer: "https://dl.example.com", Skew: time.Second}, keys)
	if _, err := a.Verify(ctx, raw); err == nil {
		t.Fatal("expected expiry rejection")
	}
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	_, keys := newSignerAndKeys(t)
	a := NewAcceptor(nil, keys)
	if _, err := a.Verify(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}
