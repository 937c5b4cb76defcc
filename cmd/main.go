package main

import (
	"note-service/internal/handler"
	"note-service/internal/middleware"
	"note-service/internal/model"
	"note-service/internal/store"
	"note-service/pkg/config"
	"note-service/pkg/database"
	"note-service/pkg/jwtutil"
	"note-service/pkg/logger"
	"note-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting note service...", cfg.LogConfig()...)

	// Initialize storage. The store is passed to the handlers explicitly;
	// nothing below reaches for a global database handle.
	st, err := buildStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize JWT utility
	jwtUtil := jwtutil.New(&cfg.JWT)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(st, jwtUtil)
	noteHandler := handler.NewNoteHandler(st, &cfg.Quota)
	tenantHandler := handler.NewTenantHandler(st)
	userHandler := handler.NewUserHandler(st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/auth/login", authHandler.Login)

	// Note routes - tenant scoped, require a valid token
	notes := e.Group("/notes")
	notes.Use(middleware.JWTAuth(jwtUtil))
	notes.GET("", noteHandler.ListNotes)
	notes.POST("", noteHandler.CreateNote)
	notes.GET("/:id", noteHandler.GetNote)
	notes.PUT("/:id", noteHandler.UpdateNote)
	notes.DELETE("/:id", noteHandler.DeleteNote)

	// Tenant user listing
	users := e.Group("/users")
	users.Use(middleware.JWTAuth(jwtUtil))
	users.GET("", userHandler.ListUsers)

	// Plan upgrade - admin only
	tenants := e.Group("/tenants")
	tenants.Use(middleware.JWTAuth(jwtUtil))
	tenants.POST("/:slug/upgrade", tenantHandler.UpgradePlan, middleware.RequireRole(model.RoleAdmin))

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// buildStore selects the storage backend. The memory driver keeps the
// service runnable without postgres, mainly for local development.
func buildStore(cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn("Using in-memory storage, data will not survive a restart")
		return store.NewMemoryStore(), nil
	}

	db, err := database.Initialize(&cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected and migrated")
	return store.NewGormStore(db), nil
}
