package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kenhavate/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix    = "user:%d"
	ThematicAreasKey = "thematic_areas:active"
	UserTTL          = 5 * time.Minute
	ThematicAreasTTL = 30 * time.Minute
)

// UserKey returns the cache key for a user record.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Cache is a JSON cache-aside layer. A nil *Cache or one without a client
// always loads from the source.
type Cache struct {
	client *redis.Client
}

// New wraps client; client may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Aside fills dest from key when cached, otherwise calls load and stores dest.
// Redis failures fall through to load.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if !c.enabled() {
		return load()
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		observability.Logger.DebugContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	encoded, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		observability.Logger.DebugContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate removes key from the cache.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c.enabled() {
		c.client.Del(ctx, key)
	}
}

// InvalidateUser removes a cached user.
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) {
	c.Invalidate(ctx, UserKey(userID))
}
