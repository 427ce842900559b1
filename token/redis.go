package token

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// RedisClient is the slice of the redis API the store needs.
type RedisClient interface {
	redis.StringCmdable
	redis.GenericCmdable
}

// RedisStore keeps the credential pair in Redis so multiple automation
// processes can share one session. Keys expire with their token TTLs, so
// stale credentials age out even without an explicit Clear.
type RedisStore struct {
	client    RedisClient
	config    Config
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client RedisClient, config Config, keyPrefix string) *RedisStore {
	keyPrefix = strings.TrimSpace(keyPrefix)
	if keyPrefix == "" {
		keyPrefix = "portal:session"
	}
	return &RedisStore{
		client:    client,
		config:    config.withDefaults(),
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) AccessToken() string {
	v, err := s.client.Get(context.Background(), s.key("access")).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *RedisStore) SetAccessToken(token string) error {
	return s.client.Set(context.Background(), s.key("access"), token, s.config.AccessTokenTTL).Err()
}

func (s *RedisStore) RefreshToken() string {
	v, err := s.client.Get(context.Background(), s.key("refresh")).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *RedisStore) SetRefreshToken(token string) error {
	return s.client.Set(context.Background(), s.key("refresh"), token, s.config.RefreshTokenTTL).Err()
}

func (s *RedisStore) User() ([]byte, bool) {
	v, err := s.client.Get(context.Background(), s.key("user")).Bytes()
	if err != nil || len(v) == 0 {
		return nil, false
	}
	return v, true
}

func (s *RedisStore) SetUser(record []byte) error {
	return s.client.Set(context.Background(), s.key("user"), record, s.config.RefreshTokenTTL).Err()
}

func (s *RedisStore) Clear() error {
	return s.client.Del(context.Background(), s.key("access"), s.key("refresh"), s.key("user")).Err()
}

func (s *RedisStore) key(suffix string) string {
	return s.keyPrefix + ":" + suffix
}
