// Package bootstrap wires the process-wide runtime shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"wayfarer/internal/cache"
	"wayfarer/internal/config"
	"wayfarer/internal/database"
	"wayfarer/internal/middleware"
	"wayfarer/internal/observability"
	"wayfarer/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ServiceName labels traces; it defaults to "wayfarer".
	ServiceName string
	// SkipRedis leaves the Redis client nil, for tools that only need the database.
	SkipRedis bool
	// SeedTripSquad inserts the alice/bob/carol fixture into an empty database.
	SeedTripSquad bool
}

// Runtime holds the shared connections and the tracer shutdown hook.
type Runtime struct {
	DB       *gorm.DB
	Redis    *redis.Client
	shutdown func(context.Context) error
}

// InitRuntime loads tracing, connects to the database and optionally Redis,
// and runs the requested seeding.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	name := opts.ServiceName
	if name == "" {
		name = "wayfarer"
	}
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    name,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rt := &Runtime{DB: db, shutdown: shutdown}
	if !opts.SkipRedis {
		// A nil client means Redis is unreachable; callers degrade.
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	if opts.SeedTripSquad {
		if err := seedIfEmpty(db); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Close flushes traces and closes any connections still held.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.shutdown != nil {
		if err := rt.shutdown(ctx); err != nil {
			middleware.Logger.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func seedIfEmpty(db *gorm.DB) error {
	var n int64
	if err := db.Table("users").Count(&n).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, _, err := seed.TripSquad(context.Background(), db); err != nil {
		return err
	}
	middleware.Logger.Info("seeded Trip Squad fixture")
	return nil
}
