// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"fmt"
	"log/slog"

	_ "blogapp/docs" // swagger docs
	"blogapp/internal/cache"
	"blogapp/internal/config"
	"blogapp/internal/featureflags"
	"blogapp/internal/middleware"
	"blogapp/internal/repository"
	"blogapp/internal/service"
	"blogapp/internal/token"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
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
	tokens         *token.Service
	featureFlags   *featureflags.Manager
	authService    *service.AuthService
	articleService *service.ArticleService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case user lookups go straight to the database.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := token.NewService(cfg.JWTSecret, cfg.JWTTTL, token.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	hasher, err := service.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, cache.New(redisClient))
	articleRepo := repository.NewArticleRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("blogapp-api"),
		tokens:         tokens,
		featureFlags:   flags,
		authService:    service.NewAuthService(userRepo, hasher),
		articleService: service.NewArticleService(articleRepo, flags),
	}, nil
}

// FeatureFlags exposes the flag set the server was configured with.
func (s *Server) FeatureFlags() *featureflags.Manager {
	return s.featureFlags
}

// NewApp builds the Fiber application with the full middleware chain and every route.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Blog API",
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	return s.respond(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Span per request; exposes the trace id to the logger
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group(s.config.APIPrefix)

	// Health endpoints
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)

	// Protected routes
	protected := api.Group("", s.AuthRequired())
	protected.Get("/auth/me", s.Me)

	articles := protected.Group("/articles")
	articles.Get("/", s.ListArticles)
	articles.Post("/", s.CreateArticle)
	articles.Get("/:id", s.GetArticle)
	articles.Put("/:id", s.UpdateArticle)
	articles.Patch("/:id", s.UpdateArticle)
	articles.Delete("/:id", s.DeleteArticle)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.tokens, s.authService)
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting",
		slog.String("port", s.config.Port),
		slog.String("api_prefix", s.config.APIPrefix),
	)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
