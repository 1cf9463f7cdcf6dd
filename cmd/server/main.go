// Command tm-server starts the task manager HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/task-manager/internal/config"
	pkgcrypto "github.com/and161185/task-manager/internal/crypto"
	"github.com/and161185/task-manager/internal/limiter"
	"github.com/and161185/task-manager/internal/migrate"
	"github.com/and161185/task-manager/internal/repository/postgres"
	httpserver "github.com/and161185/task-manager/internal/server/http"
	"github.com/and161185/task-manager/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves the API until SIGINT/SIGTERM.
func main() {
	// Flags override file and environment settings.
	cfgPath := flag.String("config", "", "path to TOML config (default $CONFIG_FILE or configs/config.toml)")
	addr := flag.String("addr", "", "listen address")
	dsn := flag.String("dsn", "", "PostgreSQL DSN")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (random per process when empty)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if *jwtKey != "" {
		cfg.Auth.JWTKey = *jwtKey
	}

	logger := newLogger(cfg.App.Env)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("limiter", cfg.Limiter.Backend),
	)

	signKey := []byte(cfg.Auth.JWTKey)
	if len(signKey) == 0 {
		signKey, err = pkgcrypto.RandBytes(32)
		if err != nil {
			logger.Fatal("generate signing key", zap.Error(err))
		}
		logger.Warn("no jwt key configured, using a random one; tokens will not survive a restart")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrate {
		if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	checks := []httpserver.HealthCheck{{Name: "postgres", Ping: db.Ping}}

	// Login limiter
	policy := limiter.Policy{
		Window:   cfg.Limiter.Window.Duration,
		MaxFails: cfg.Limiter.MaxFails,
		BlockFor: cfg.Limiter.BlockFor.Duration,
	}
	var lim limiter.Limiter
	switch cfg.Limiter.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		lim = limiter.NewRedis(rdb, policy, cfg.Redis.Prefix)
		checks = append(checks, httpserver.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	case "postgres":
		lim = limiter.NewPG(db.Pool, policy)
	default:
		lim = limiter.Noop{}
	}

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	taskRepo := postgres.NewTaskRepo(db)

	// Services
	tokens := service.NewTokenService(signKey)
	authSvc := service.NewAuthService(userRepo, pkgcrypto.NewHasher(cfg.Auth.BcryptCost), tokens,
		cfg.Auth.AccessTTL.Duration, lim, logger)
	taskSvc := service.NewTaskService(taskRepo)

	gin.SetMode(cfg.App.GinMode)
	app := httpserver.New(httpserver.Options{
		Auth:           authSvc,
		Tasks:          taskSvc,
		Logger:         logger,
		Checks:         checks,
		WebDir:         cfg.HTTP.WebDir,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	handler, err := app.Routes()
	if err != nil {
		logger.Fatal("build routes", zap.Error(err))
	}

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown timed out", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
