package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const dangerFlagKey = "settings:danger_mode"

// GetDangerFlag returns the cached flag or ErrCacheMiss.
func (c *Cache) GetDangerFlag(ctx context.Context) (bool, error) {
	raw, err := c.client.Get(ctx, dangerFlagKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrCacheMiss
		}
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	on, err := strconv.ParseBool(raw)
	if err != nil {
		// Corrupted entry - treat as miss
		return false, ErrCacheMiss
	}
	return on, nil
}

// SetDangerFlag caches the flag for ttl.
func (c *Cache) SetDangerFlag(ctx context.Context, on bool, ttl time.Duration) error {
	if err := c.client.Set(ctx, dangerFlagKey, strconv.FormatBool(on), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateDangerFlag drops the cached flag so the next read hits the store.
func (c *Cache) InvalidateDangerFlag(ctx context.Context) error {
	if err := c.client.Del(ctx, dangerFlagKey).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
