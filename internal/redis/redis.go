package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// NewClient opens a client and checks the connection.
func NewClient(ctx context.Context, address, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", address, err)
	}
	log.Info().Str("address", address).Msg("connected to redis")
	return client, nil
}

// TimingsCache stores a day's prayer times so the provider is hit once per
// location and day.
type TimingsCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewTimingsCache(client *redis.Client, ttl time.Duration) *TimingsCache {
	return &TimingsCache{client: client, ttl: ttl, prefix: "prayer_times:"}
}

func (c *TimingsCache) Get(ctx context.Context, key string) (*model.PrayerTimes, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var times model.PrayerTimes
	if err := json.Unmarshal([]byte(raw), &times); err != nil {
		return nil, fmt.Errorf("decode cached timings %s: %w", key, err)
	}
	return &times, nil
}

func (c *TimingsCache) Set(ctx context.Context, key string, times model.PrayerTimes) error {
	body, err := json.Marshal(times)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, body, c.ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to cache prayer times")
		return err
	}
	return nil
}
