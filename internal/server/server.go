// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "wayfarer/docs" // swagger docs
	"wayfarer/internal/cache"
	"wayfarer/internal/collab"
	"wayfarer/internal/config"
	"wayfarer/internal/database"
	"wayfarer/internal/featureflags"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/notifications"
	"wayfarer/internal/queue"
	"wayfarer/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	reminders      *queue.Client
	featureFlags   *featureflags.Manager
	services       collab.Services
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case inbox events stay in-process and
// reminder jobs are not enqueued.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: httpMetrics(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),
	}
	s.notifier = notifications.NewNotifier(redisClient, s.hub)

	var reminders service.ReminderQueue
	if redisClient != nil {
		opt, err := queue.RedisOpt(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("reminder queue: %w", err)
		}
		s.reminders = queue.NewClient(opt)
		reminders = s.reminders
	}

	s.services = collab.NewServices(db, collab.Deps{
		Config: cfg,
		Flags:  s.featureFlags,
		Events: s.notifier,
		Queue:  reminders,
	})
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static(s.services.Avatars.PublicBase(), s.services.Avatars.UploadDir(), fiber.Static{MaxAge: 86400})

	api := app.Group("/api")

	// Invite links are built locally and need no identity.
	api.Get("/invites/link/:code", s.GetInviteLink)

	app.Get("/ws", middleware.WebSocketAuthRequired, s.InboxStreamUpgrade, s.InboxStreamHandler())

	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/feature-flags", s.GetFeatureFlags)

	inbox := protected.Group("/inbox")
	inbox.Get("/", s.GetInbox)
	inbox.Post("/:kind/:id/:action", s.InboxAction)

	protected.Post("/conversations", s.CreateConversation)
	protected.Post("/avatars", middleware.RateLimit(s.redis, 10, time.Minute, "avatar_upload"), s.UploadAvatar)
	protected.Get("/users/search", middleware.RateLimit(s.redis, 30, time.Minute, "user_search"), s.SearchUsers)

	for _, kind := range []models.Kind{models.KindGroup, models.KindCommunity} {
		circles := protected.Group("/"+kind.Plural(), withKind(kind))
		circles.Post("/", s.CreateCircle)
		circles.Patch("/:id", s.UpdateCircle)
		// Specific /:id/:resource routes.
		circles.Post("/:id/members", s.AddMember)
		circles.Delete("/:id/members/:userId", s.RemoveMember)
		circles.Get("/:id/invites", s.ListInvites)
		circles.Post("/:id/invites", middleware.RateLimit(
			s.redis, 20, 10*time.Minute, "create_invite"), s.CreateInvite)
		circles.Post("/:id/invites/:inviteId/remind", middleware.RateLimit(
			s.redis, 10, 10*time.Minute, "remind_invite"), s.RemindInvite)
		circles.Post("/:id/invites/:inviteId/revoke", s.RevokeInvite)
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only carries fan-out and reminders; the API degrades without it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the fiber app with middleware and routes. Start calls it; tests
// use it with app.Test.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Wayfarer API",
		BodyLimit: (s.avatarLimitMB() + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if s.reminders != nil {
		if err := s.reminders.Close(); err != nil {
			middleware.Logger.Error("error closing reminder queue", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics registers the HTTP collectors once per process.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() { prom = middleware.InitMetrics("wayfarer-api") })
	return prom
}

func (s *Server) avatarLimitMB() int {
	if s.config.AvatarMaxUploadMB > 0 {
		return s.config.AvatarMaxUploadMB
	}
	return 5
}
