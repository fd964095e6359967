// Package main runs the event platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventbuddy/backend/config"
	"github.com/eventbuddy/backend/internal/auth"
	"github.com/eventbuddy/backend/internal/bookings"
	"github.com/eventbuddy/backend/internal/emaillogs"
	"github.com/eventbuddy/backend/internal/events"
	"github.com/eventbuddy/backend/internal/images"
	"github.com/eventbuddy/backend/internal/middleware"
	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/internal/organizations"
	"github.com/eventbuddy/backend/internal/users"
	"github.com/eventbuddy/backend/pkg/database"
	"github.com/eventbuddy/backend/pkg/queue"
	"github.com/eventbuddy/backend/pkg/redis"
	"github.com/eventbuddy/backend/pkg/response"
	"github.com/eventbuddy/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ImagesBucket:         cfg.AWS.ImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Users and auth
	userRepo := users.NewRepository(pool)
	authHandler := auth.NewHandler(userRepo, jwtService, logger)

	// Images (disabled without S3)
	var imageSvc *images.Service
	var imageHandler *images.Handler
	if s3Client != nil {
		imageRepo := images.NewRepository(pool)
		imageSvc = images.NewService(imageRepo, s3Client, logger)
		imageHandler = images.NewHandler(imageSvc, logger)
	}
	var orgImages organizations.ImageRemover
	var eventImages events.ImageRemover
	if imageSvc != nil {
		orgImages = imageSvc
		eventImages = imageSvc
	}

	// Bookings
	eventRepo := events.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	bookingSvc := bookings.NewService(bookingRepo, eventRepo, jobQueue, logger)
	bookingHandler := bookings.NewHandler(bookingSvc, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgSvc := organizations.NewService(orgRepo, userRepo, orgImages, bookingSvc, logger)
	orgHandler := organizations.NewHandler(orgSvc, logger)

	userSvc := users.NewService(userRepo, orgRepo, orgSvc, logger)
	userHandler := users.NewHandler(userSvc, logger)

	// Events
	eventSvc := events.NewService(eventRepo, orgRepo, eventImages, logger)
	eventHandler := events.NewHandler(eventSvc, orgRepo, logger)

	// Email logs
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsSvc := emaillogs.NewService(emailLogsRepo, bookingRepo, jobQueue, logger)
	emailLogsHandler := emaillogs.NewHandler(emailLogsSvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/provider", authHandler.ProviderLogin)
	}

	// Public catalog
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.Get)
	router.GET("/organizations", orgHandler.List)
	router.GET("/organizations/:id", orgHandler.Get)
	router.GET("/users/:id", userHandler.Get)
	if imageHandler != nil {
		router.GET("/images/:id", imageHandler.Get)
		router.GET("/images/:id/content", imageHandler.Serve)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Own profile and resources
		api.GET("/me", userHandler.Me)
		api.PATCH("/me", userHandler.UpdateMe)
		api.DELETE("/me", userHandler.DeleteMe)
		api.GET("/me/organizations", orgHandler.ListMine)
		api.GET("/me/events", eventHandler.ListMine)
		api.GET("/me/bookings", bookingHandler.ListMine)

		// Users (admin)
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), userHandler.List)
		api.PUT("/users/:id/role", middleware.RequireRole(models.RoleAdmin), userHandler.SetRole)
		api.DELETE("/users/:id", middleware.RequireRole(models.RoleAdmin), userHandler.Delete)

		// Organizations
		api.POST("/organizations", orgHandler.Create)
		api.PATCH("/organizations/:id", orgHandler.Update)
		api.DELETE("/organizations/:id", orgHandler.Delete)
		api.POST("/organizations/:id/owners", orgHandler.AddOwner)
		api.DELETE("/organizations/:id/owners/:userId", orgHandler.RemoveOwner)

		// Events
		api.POST("/events", eventHandler.Create)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)

		// Bookings
		api.POST("/events/:id/bookings", bookingHandler.Create)
		api.GET("/events/:id/bookings", middleware.RequireRole(models.RoleAdmin), bookingHandler.ListByEvent)
		api.DELETE("/bookings/:id", bookingHandler.Delete)

		// Email logs (admin)
		api.GET("/events/:id/emails", middleware.RequireRole(models.RoleAdmin), emailLogsHandler.ListByEvent)
		api.POST("/events/:id/emails/:logId/resend", middleware.RequireRole(models.RoleAdmin), emailLogsHandler.Resend)

		// Images
		if imageHandler != nil {
			api.POST("/images", imageHandler.Upload)
			api.DELETE("/images/:id", middleware.RequireRole(models.RoleAdmin), imageHandler.Delete)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
