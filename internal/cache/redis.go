package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/aeroclub/config"
	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client          redis.UniversalClient
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, availabilityTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		availabilityTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, availabilityTTL: availabilityTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetAvailability returns nil without error on a cache miss.
func (c *RedisCache) GetAvailability(ctx context.Context, aircraftID string) (*domain.Availability, error) {
	data, err := c.client.Get(ctx, availabilityKey(aircraftID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var availability domain.Availability
	if err := json.Unmarshal(data, &availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, aircraftID string, availability domain.Availability) error {
	payload, err := json.Marshal(availability)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(aircraftID), payload, c.availabilityTTL).Err()
}

func (c *RedisCache) InvalidateAvailability(ctx context.Context, aircraftID string) error {
	return c.client.Del(ctx, availabilityKey(aircraftID)).Err()
}

func (c *RedisCache) AcquireResourceLock(ctx context.Context, resourceID, token string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, resourceLockKey(resourceID), token, ttl).Result()
}

func (c *RedisCache) ReleaseResourceLock(ctx context.Context, resourceID, token string) error {
	return releaseScript.Run(ctx, c.client, []string{resourceLockKey(resourceID)}, token).Err()
}

func availabilityKey(aircraftID string) string {
	return fmt.Sprintf("cache:aircraft:%s:availability", aircraftID)
}

func resourceLockKey(resourceID string) string {
	return fmt.Sprintf("lock:aircraft:%s", resourceID)
}
