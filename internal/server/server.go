// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	_ "twitt/docs" // swagger docs
	"twitt/internal/bootstrap"
	"twitt/internal/cache"
	"twitt/internal/config"
	"twitt/internal/database"
	"twitt/internal/featureflags"
	"twitt/internal/media"
	"twitt/internal/middleware"
	"twitt/internal/notifications"
	"twitt/internal/observability"
	"twitt/internal/repository"
	"twitt/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	mediaStore   media.Store
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	fanOut       *notifications.FanOut
	featureFlags *featureflags.Manager
	tokens       *service.TokenService
	wsLog        *observability.WSLogger

	authService    *service.AuthService
	postService    *service.PostService
	likeService    *service.LikeService
	commentService *service.CommentService
	followService  *service.FollowService
	feedService    *service.FeedService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	store, err := media.NewStore(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}

	return NewServerWithDeps(cfg, db, rdb, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables tickets, rate limits, cross-process fan-out and
// the suggestion cache. A nil store falls back to the local media directory.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if store == nil {
		store = media.NewLocalStore(cfg.MediaLocalDir, cfg.MediaPublicURL)
	}

	cacheStore := cache.NewStore(redisClient)

	userRepo := repository.NewUserRepository(db, cacheStore)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("twitt-api"),
		mediaStore:     store,
		notifier:       notifications.NewNotifier(redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(redisClient),
		wsLog:          observability.NewWSLogger("notifications"),
	}
	s.fanOut = notifications.NewFanOut(s.hub, s.notifier, followRepo)

	s.tokens = service.NewTokenService(cfg, redisClient)
	s.authService = service.NewAuthService(userRepo, s.tokens)
	uploader := media.NewUploader(media.NewProcessor(cfg.MediaMaxUploadSizeMB), store)
	s.postService = service.NewPostService(postRepo, userRepo, uploader, s.fanOut)
	s.likeService = service.NewLikeService(likeRepo, postRepo, userRepo, s.fanOut)
	s.commentService = service.NewCommentService(commentRepo, postRepo, userRepo)
	s.followService = service.NewFollowService(followRepo, userRepo, cacheStore)
	s.feedService = service.NewFeedService(postRepo, userRepo, cacheStore, s.featureFlags)

	return s, nil
}

// Hub exposes the notification hub, mainly for tests and bootstrap.
func (s *Server) Hub() *notifications.Hub {
	return s.hub
}

// App builds the fiber application with middleware and routes. The same
// instance is reused by Start.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := s.config.MediaMaxUploadSizeMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}
	app := fiber.New(fiber.Config{
		AppName:      "Twitt API",
		BodyLimit:    (bodyLimit + 1) * 1024 * 1024,
		ErrorHandler: s.respondError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New(recover.Config{EnableStackTrace: !s.config.IsProduction()}))
	app.Use(requestid.New())
	app.Use(middleware.Tracing())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.RequestLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if local, ok := s.mediaStore.(*media.LocalStore); ok {
		app.Static("/media", local.Dir(), fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", middleware.RateLimit(s.redis, 30, 5*time.Minute, "refresh"), s.Refresh)
	auth.Post("/logout", middleware.AuthRequired(s.tokens), s.Logout)

	// The socket authenticates with a one-time ticket, not a bearer token.
	api.Get("/ws/notifications", s.WebSocketTicketAuth, s.NotificationsWebSocket())

	protected := api.Group("", middleware.AuthRequired(s.tokens))

	protected.Post("/ws/ticket", middleware.RateLimit(s.redis, 30, time.Minute, "ws_ticket"), s.IssueWSTicket)
	protected.Get("/feature-flags", s.GetFeatureFlags)
	protected.Get("/feed", s.GetFeed)

	users := protected.Group("/users")
	users.Get("/me", s.GetMe)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)

	posts := protected.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", middleware.RateLimit(s.redis, 60, time.Minute, "like"), s.LikePost)
	posts.Delete("/:id/like", s.DislikePost)
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Post("/:id/replies", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateReply)
	comments.Delete("/:id", s.DeleteComment)

	follows := protected.Group("/follows")
	follows.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.Follow)
	follows.Delete("/", s.Unfollow)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; the API degrades without it.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
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

// Start wires the hub to Redis and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		observability.Logger.Error("failed to start hub wiring",
			zap.String("hub", s.hub.Name()), zap.Error(err))
	}

	observability.Logger.Info("server starting", zap.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server: HTTP first, then live sockets,
// then the stores. The caller flushes the tracer provider.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	log := observability.Logger
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Error("error shutting down HTTP server", zap.Error(err))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Error("error shutting down hub", zap.String("hub", s.hub.Name()), zap.Error(err))
	}

	if err := database.Close(s.db); err != nil {
		log.Error("error closing database", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error("error closing redis", zap.Error(err))
		}
	}

	log.Info("server shutdown complete")
	return nil
}
