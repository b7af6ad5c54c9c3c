package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-rails/downloadkit/session"
)

// SessionStore is a redis-backed session.Store keyed by a caller-chosen id
// (device id, browser session id). Tokens expire with the store TTL.
type SessionStore struct {
	rdb   *redis.Client
	keyNS string
	id    string
	ttl   time.Duration
}

func NewSessionStore(rdb *redis.Client, keyPrefix, sessionID string, ttl time.Duration) *SessionStore {
	if keyPrefix == "" {
		keyPrefix = "dl:session:"
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionStore{rdb: rdb, keyNS: keyPrefix, id: sessionID, ttl: ttl}
}

func (s *SessionStore) tokenKey() string { return s.keyNS + s.id + ":token" }
func (s *SessionStore) userKey() string  { return s.keyNS + s.id + ":user" }

func (s *SessionStore) GetToken(ctx context.Context) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.tokenKey()).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, val != "", nil
}

func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	return s.rdb.Set(ctx, s.tokenKey(), token, s.ttl).Err()
}

func (s *SessionStore) GetUser(ctx context.Context) (*session.User, error) {
	val, err := s.rdb.Get(ctx, s.userKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u session.User
	if err := json.Unmarshal(val, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SessionStore) SetUser(ctx context.Context, u session.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.userKey(), b, s.ttl).Err()
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.tokenKey(), s.userKey()).Err()
}
