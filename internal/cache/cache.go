// Package cache keeps the last known snapshot of each bin in Redis so a
// restarted API can show the bin before the next telemetry arrives.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

const snapshotTTL = 24 * time.Hour

type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type Redis struct {
	rdb redisAPI
}

// NewRedis connects to addr and checks the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, func() error, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis unavailable: %w", err)
	}
	return &Redis{rdb: rdb}, rdb.Close, nil
}

func key(binID string) string { return "bin:last:" + binID }

// Save overwrites the bin's snapshot. Dead bins drop out after a day.
func (r *Redis) Save(ctx context.Context, data domain.TrashCanData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, key(data.ID), raw, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load returns false when nothing is cached for the bin.
func (r *Redis) Load(ctx context.Context, binID string) (domain.TrashCanData, bool, error) {
	raw, err := r.rdb.Get(ctx, key(binID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.TrashCanData{}, false, nil
	}
	if err != nil {
		return domain.TrashCanData{}, false, fmt.Errorf("redis get: %w", err)
	}
	var data domain.TrashCanData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.TrashCanData{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return data, true, nil
}

// Nop is used when REDIS_ADDR is empty.
type Nop struct{}

func (Nop) Save(context.Context, domain.TrashCanData) error { return nil }

func (Nop) Load(context.Context, string) (domain.TrashCanData, bool, error) {
	return domain.TrashCanData{}, false, nil
}
