// Package main runs the background job worker (booking confirmation emails).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventbuddy/backend/config"
	"github.com/eventbuddy/backend/internal/bookings"
	"github.com/eventbuddy/backend/internal/emaillogs"
	"github.com/eventbuddy/backend/internal/events"
	"github.com/eventbuddy/backend/internal/users"
	"github.com/eventbuddy/backend/internal/worker"
	"github.com/eventbuddy/backend/pkg/database"
	"github.com/eventbuddy/backend/pkg/queue"
	"github.com/eventbuddy/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var sender worker.Sender
	if cfg.Email.SMTPHost != "" {
		sender = worker.NewSMTPSender(worker.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPass,
			From:     cfg.Email.FromAddress,
		})
	} else {
		logger.Warn("SMTP_HOST not set, emails are logged only")
		sender = &worker.LogSender{Logger: logger}
	}

	bookingRepo := bookings.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	userRepo := users.NewRepository(pool)
	emailLogsRepo := emaillogs.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewConfirmationProcessor(bookingRepo, eventRepo, userRepo, emailLogsRepo, sender, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
