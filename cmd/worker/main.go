// Command worker delivers invite reminder jobs.
package main

import (
	"context"
	"log"
	"time"

	"wayfarer/internal/bootstrap"
	"wayfarer/internal/config"
	"wayfarer/internal/middleware"
	"wayfarer/internal/queue"
	"wayfarer/internal/repository"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ServiceName: "wayfarer-worker", SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rt.Close(ctx)
	}()

	opt, err := queue.RedisOpt(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}

	handler := queue.NewReminderHandler(
		repository.NewInviteRepository(rt.DB),
		queue.LogMailer{Logger: middleware.Logger},
		cfg.PublicOrigin,
	)

	// Run blocks until SIGTERM or SIGINT.
	srv := queue.NewServer(opt, cfg.WorkerConcurrency)
	if err := srv.Run(queue.NewServeMux(handler)); err != nil {
		log.Printf("worker stopped: %v", err)
	}
}
