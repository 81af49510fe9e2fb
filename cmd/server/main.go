package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/followgraph/config"
	"github.com/d60-Lab/followgraph/internal/api/handler"
	"github.com/d60-Lab/followgraph/internal/api/router"
	"github.com/d60-Lab/followgraph/internal/realtime"
	"github.com/d60-Lab/followgraph/internal/repository"
	"github.com/d60-Lab/followgraph/internal/service"
	"github.com/d60-Lab/followgraph/pkg/database"
	"github.com/d60-Lab/followgraph/pkg/logger"
	"github.com/d60-Lab/followgraph/pkg/tracing"
)

// @title FollowGraph API
// @version 1.0
// @description 关注关系生命周期、通知流水与实时推送
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.IsDevelopment()); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	store := repository.NewStore(db)
	if cfg.Database.AutoMigrate {
		if err := store.InitSchema(); err != nil {
			logger.Fatal("migrate failed", zap.Error(err))
		}
	}

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}

	hub := realtime.NewHub(cfg.Realtime.BufferSize)
	var channel realtime.Channel = hub
	stopChannel := func(context.Context) error { return nil }
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		rc := realtime.NewRedisChannel(rdb, hub, cfg.Redis.ChannelPrefix, cfg.Realtime.PublishQueue, cfg.Realtime.PublishWorkers)
		stop, err := rc.Start(ctx)
		if err != nil {
			logger.Fatal("realtime redis bridge failed", zap.Error(err))
		}
		stopChannel = func(ctx context.Context) error {
			err := stop(ctx)
			return errors.Join(err, rdb.Close())
		}
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		channel = rc
	}

	users := store.Users()
	h := handler.New(
		service.NewFollowService(store, users, channel),
		service.NewNotificationService(store),
		channel,
		handler.Options{Heartbeat: cfg.Realtime.Heartbeat, Checks: checks},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.New(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// SSE 长连接不会自行结束，Shutdown 时先关闭所有会话
	srv.RegisterOnShutdown(hub.Shutdown)

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopChannel(shutdownCtx); err != nil {
		logger.Error("realtime shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
	// 存储最后关闭
	if err := store.Close(); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	logger.Info("server exited")
}
