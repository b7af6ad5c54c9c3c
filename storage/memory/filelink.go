package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/open-rails/downloadkit/filelink"
)

// LinkStore is an in-memory implementation of filelink.Store with TTL.
// Starts a background goroutine to clean up expired entries every minute.
type LinkStore struct {
	mu     sync.Mutex
	data   map[string]linkItem
	closed chan struct{}
}

type linkItem struct {
	t   filelink.Target
	exp time.Time
}

func NewLinkStore() *LinkStore {
	s := &LinkStore{data: make(map[string]linkItem), closed: make(chan struct{})}
	go s.cleanupLoop()
	return s
}

func (s *LinkStore) Put(ctx context.Context, token string, t filelink.Target, ttl time.Duration) error {
	_ = ctx
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[token] = linkItem{t: t, exp: time.Now().Add(ttl)}
	return nil
}

func (s *LinkStore) Get(ctx context.Context, token string) (filelink.Target, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.data[token]
	if !ok {
		return filelink.Target{}, false, nil
	}
	if time.Now().After(it.exp) {
		delete(s.data, token)
		return filelink.Target{}, false, nil
	}
	return it.t, true, nil
}

func (s *LinkStore) Del(ctx context.Context, token string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, token)
	return nil
}

func (s *LinkStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.closed:
			return
		}
	}
}

func (s *LinkStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.data {
		if now.After(v.exp) {
			delete(s.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
func (s *LinkStore) Close() error {
	close(s.closed)
	return nil
}
