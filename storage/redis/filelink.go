package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-rails/downloadkit/filelink"
)

type LinkStore struct {
	rdb   *redis.Client
	keyNS string
}

func NewLinkStore(rdb *redis.Client, keyPrefix string) *LinkStore {
	if keyPrefix == "" {
		keyPrefix = "dl:filelink:"
	}
	return &LinkStore{rdb: rdb, keyNS: keyPrefix}
}

func (s *LinkStore) key(token string) string { return s.keyNS + token }

func (s *LinkStore) Put(ctx context.Context, token string, t filelink.Target, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(token), b, ttl).Err()
}

func (s *LinkStore) Get(ctx context.Context, token string) (filelink.Target, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(token)).Bytes()
	if err == redis.Nil {
		return filelink.Target{}, false, nil
	}
	if err != nil {
		return filelink.Target{}, false, err
	}
	var t filelink.Target
	if err := json.Unmarshal(val, &t); err != nil {
		return filelink.Target{}, false, err
	}
	return t, true, nil
}

func (s *LinkStore) Del(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}
