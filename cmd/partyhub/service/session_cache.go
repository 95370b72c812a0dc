package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/redis"
)

// RedisSessionCache stores resolved sessions under session:<token>
type RedisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionCache creates a session cache backed by Redis
func NewRedisSessionCache(client *redis.Client, ttl time.Duration) *RedisSessionCache {
	return &RedisSessionCache{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Get returns the cached user for token
func (c *RedisSessionCache) Get(ctx context.Context, token string) (*models.User, bool, error) {
	raw, err := c.client.Get(ctx, sessionKey(token))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	user := &models.User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached session: %w", err)
	}
	user.SessionToken = token
	return user, true, nil
}

// Set caches user under token
func (c *RedisSessionCache) Set(ctx context.Context, token string, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return c.client.SetWithExpiry(ctx, sessionKey(token), string(raw), c.ttl)
}
