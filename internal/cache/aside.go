package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"wayfarer/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Aside reads key into dest, or calls load to fill dest and stores the
// result for ttl. Without a client it just calls load. Cache failures are
// logged and never returned; only load errors are.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		middleware.Logger.Warn("cache entry undecodable, reloading", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		middleware.Logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
