package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gymwatch/gymwatch/internal/model"
)

// loginSessionPrefix is the Redis key prefix for signed-in sessions.
// Keys are suffixed with the token hash, never the raw token.
const loginSessionPrefix = "auth:session:"

// CreateLoginSession stores a login session under tokenHash for ttl.
func (c *Cache) CreateLoginSession(ctx context.Context, tokenHash string, sess *model.LoginSession, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal login session: %w", err)
	}

	if err := c.client.Set(ctx, loginSessionPrefix+tokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("store login session: %w", err)
	}
	return nil
}

// GetLoginSession loads a login session. Unknown, expired or corrupted
// entries return ErrCacheMiss.
func (c *Cache) GetLoginSession(ctx context.Context, tokenHash string) (*model.LoginSession, error) {
	data, err := c.client.Get(ctx, loginSessionPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("load login session: %w", err)
	}

	var sess model.LoginSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrCacheMiss
	}
	return &sess, nil
}

// DeleteLoginSession signs a session out. Missing keys are not an error.
func (c *Cache) DeleteLoginSession(ctx context.Context, tokenHash string) error {
	if err := c.client.Del(ctx, loginSessionPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("delete login session: %w", err)
	}
	return nil
}
