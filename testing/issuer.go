// Package testing provides utilities for testing applications that use
// downloadkit. It provides a mock issuer that serves JWKS and can sign
// tokens, and a mock backend that answers the download REST contract,
// enabling integration tests without a real server.
//
// Example usage:
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//
//	// Configure the service to accept the test issuer
//	cfg.Issuer = issuer.URL()
//
//	// Create tokens for testing
//	token := issuer.CreateToken("user-123", "test@example.com")
package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	tokenkit "github.com/open-rails/downloadkit/token"
)

// TestIssuer runs an HTTP server that serves JWKS at /.well-known/jwks.json
// and signs JWT tokens that validate against that JWKS.
type TestIssuer struct {
	server   *httptest.Server
	signer   *tokenkit.RSASigner
	audience string
}

// NewTestIssuer creates a new test issuer with a JWKS endpoint.
// Call Close() when done to shut down the test server.
func NewTestIssuer() *TestIssuer {
	return NewTestIssuerWithAudience("downloadkit")
}

// NewTestIssuerWithAudience creates a test issuer with a specific audience claim.
func NewTestIssuerWithAudience(audience string) *TestIssuer {
	signer, err := tokenkit.NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}

	ti := &TestIssuer{signer: signer, audience: audience}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", ti.handleJWKS)

	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the test issuer server.
func (ti *TestIssuer) URL() string { return ti.server.URL }

// JWKSURL returns the JWKS endpoint for acceptor configuration.
func (ti *TestIssuer) JWKSURL() string { return ti.server.URL + "/.well-known/jwks.json" }

// Audience returns the audience configured for this test issuer.
func (ti *TestIssuer) Audience() string { return ti.audience }

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

func (ti *TestIssuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	k := tokenkit.RSAPublicToJWK(ti.signer.PublicKey(), ti.signer.KID(), ti.signer.Algorithm())
	tokenkit.ServeJWKS(w, r, tokenkit.JWKS{Keys: []tokenkit.JWK{k}})
}

// CreateToken creates a signed JWT token for testing. The token validates
// against the JWKS served by this issuer.
func (ti *TestIssuer) CreateToken(userID, email string) string {
	return ti.CreateTokenWithClaims(userID, email, nil)
}

// CreateTokenWithClaims creates a signed JWT with additional custom claims
// merged over the standard ones (sub, email, iss, aud, exp, iat).
func (ti *TestIssuer) CreateTokenWithClaims(userID, email string, extraClaims map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iss":   ti.URL(),
		"aud":   ti.audience,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
	}
	for k, v := range extraClaims {
		claims[k] = v
	}
	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateTokenWithExpiry creates a signed JWT with a custom expiry time.
func (ti *TestIssuer) CreateTokenWithExpiry(userID, email string, expiry time.Time) string {
	return ti.CreateTokenWithClaims(userID, email, map[string]any{"exp": expiry.Unix()})
}

// CreateExpiredToken creates a token that has already expired.
func (ti *TestIssuer) CreateExpiredToken(userID, email string) string {
	return ti.CreateTokenWithExpiry(userID, email, time.Now().Add(-time.Hour))
}
