package memorystore

import (
	"context"
	"sync"

	"github.com/open-rails/downloadkit/session"
)

// SessionStore is an in-memory implementation of session.Store. It is the
// default for tests and single-process hosts; browser hosts supply their own
// local-storage-backed implementation.
type SessionStore struct {
	mu    sync.Mutex
	token string
	user  *session.User
}

func NewSessionStore() *SessionStore { return &SessionStore{} }

func (s *SessionStore) GetToken(ctx context.Context) (string, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != "", nil
}

func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *SessionStore) GetUser(ctx context.Context) (*session.User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *SessionStore) SetUser(ctx context.Context, u session.User) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}
