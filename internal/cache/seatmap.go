// Package cache keeps showtime seat maps in Redis. Seat maps are read often
// and change only when a bill is committed, so they are cached for a short
// TTL and dropped after every successful booking.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatMapLoader reads a seat map from the primary store.
type SeatMapLoader interface {
	SeatMap(ctx context.Context, showtimeID uint64) ([]model.SeatView, error)
}

// SeatMapCache is a read-through cache of seat maps. With a nil Redis
// client every read goes to the loader.
type SeatMapCache struct {
	rdb    redis.Cmdable
	loader SeatMapLoader
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

func NewSeatMapCache(rdb *redis.Client, loader SeatMapLoader, ttl time.Duration, prefix string, log *logger.Logger) *SeatMapCache {
	c := &SeatMapCache{loader: loader, ttl: ttl, prefix: prefix, log: log}
	if rdb != nil {
		c.rdb = rdb
	}
	if c.ttl <= 0 {
		c.ttl = 10 * time.Second
	}
	if c.prefix == "" {
		c.prefix = "cache"
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	return c
}

// Key is the Redis key of the seat map of showtimeID.
func (c *SeatMapCache) Key(showtimeID uint64) string {
	return c.prefix + ":seatmap:" + strconv.FormatUint(showtimeID, 10)
}

// Get returns the seat map of showtimeID. Redis failures are logged and the
// map is loaded from the store instead.
func (c *SeatMapCache) Get(ctx context.Context, showtimeID uint64) ([]model.SeatView, error) {
	key := c.Key(showtimeID)
	if c.rdb != nil {
		bs, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var views []model.SeatView
			if err := json.Unmarshal(bs, &views); err == nil {
				return views, nil
			}
			c.log.WarnContext(ctx, "seat map cache: corrupt entry", slog.String("key", key))
		case errors.Is(err, redis.Nil):
		default:
			c.log.WarnContext(ctx, "seat map cache: get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	views, err := c.loader.SeatMap(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		payload, err := json.Marshal(views)
		if err == nil {
			err = c.rdb.Set(ctx, key, payload, c.ttl).Err()
		}
		if err != nil {
			c.log.WarnContext(ctx, "seat map cache: set failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return views, nil
}

// Invalidate drops the cached seat map of showtimeID.
func (c *SeatMapCache) Invalidate(ctx context.Context, showtimeID uint64) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.Key(showtimeID)).Err()
}
