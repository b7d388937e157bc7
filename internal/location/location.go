package location

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "guards_rts:"
	// Entries outlive the guard's shift by a wide margin so dispatchers
	// can see stale positions, then expire on their own.
	entryTTL = 30 * 24 * time.Hour
)

// Location is one guard's last reported position.
type Location struct {
	GuardID   int64     `json:"guard_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	OnShift   bool      `json:"on_shift"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache stores guard positions keyed by guard id.
type Cache interface {
	Set(ctx context.Context, loc *Location) error
	Get(ctx context.Context, guardID int64) (*Location, bool, error)
	All(ctx context.Context) ([]*Location, error)
}

// RedisCache keeps positions in redis under guards_rts:<guard_id> with a
// rolling TTL refreshed on every update.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func key(guardID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, guardID)
}

func (c *RedisCache) Set(ctx context.Context, loc *Location) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(loc.GuardID), payload, entryTTL).Err()
}

func (c *RedisCache) Get(ctx context.Context, guardID int64) (*Location, bool, error) {
	payload, err := c.client.Get(ctx, key(guardID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var loc Location
	if err := json.Unmarshal(payload, &loc); err != nil {
		return nil, false, err
	}
	return &loc, true, nil
}

func (c *RedisCache) All(ctx context.Context) ([]*Location, error) {
	locations := []*Location{}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := c.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var loc Location
		if err := json.Unmarshal(payload, &loc); err != nil {
			continue
		}
		locations = append(locations, &loc)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}
