// Package session abstracts the client-persisted auth state (access token plus
// a serialized user snapshot). Browser hosts back it with local storage; server
// hosts can use the in-memory or redis implementations under storage/.
package session

import "context"

// User is the minimal persisted identity snapshot.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Store holds the caller's session state. Presence or absence of a token
// governs the authenticated vs. anonymous branches of every flow; no component
// ever mutates a shared HTTP client with it.
type Store interface {
	// GetToken returns the access token, with ok=false when no session exists.
	GetToken(ctx context.Context) (token string, ok bool, err error)
	SetToken(ctx context.Context, token string) error
	// GetUser returns the persisted user snapshot, nil when absent.
	GetUser(ctx context.Context) (*User, error)
	SetUser(ctx context.Context, u User) error
	// Clear removes both token and user (logout).
	Clear(ctx context.Context) error
}
