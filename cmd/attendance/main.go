package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/smart-attendance/attendance/internal/app"
	"github.com/smart-attendance/attendance/internal/attendance"
	"github.com/smart-attendance/attendance/internal/auth"
	"github.com/smart-attendance/attendance/internal/observability"
	"github.com/smart-attendance/attendance/internal/permissions"
	"github.com/smart-attendance/attendance/internal/platform/cache"
	"github.com/smart-attendance/attendance/internal/platform/db"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
	"github.com/smart-attendance/attendance/internal/users"
	"github.com/smart-attendance/attendance/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stdout)

	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.PGDSN, logger); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := cfg.Redis().Asynq()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	responder := httpx.NewResponder(logger, cfg.IsDevelopment())
	metrics := observability.NewMetrics()

	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	revoked := auth.NewRedisRevocationStore(redisClient)
	authService := auth.NewService(auth.NewRepository(dbpool), tokens, revoked)
	authHandler := auth.NewHandler(logger, authService, responder, cfg.LoginRateLimitPerMinute)

	permissionsService := permissions.NewService(permissions.NewRepository(dbpool), jobClient, logger)
	permissionsHandler := permissions.NewHandler(logger, permissionsService, responder, permissions.Rules{
		List:   cfg.PermissionsListTier,
		Detail: cfg.PermissionsDetailTier,
		Review: cfg.PermissionsReviewTier,
	})

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)), responder)
	attendanceHandler := attendance.NewHandler(logger, attendance.NewService(attendance.NewRepository(dbpool)), responder)
	jobHandler := jobs.NewHandler(inspector, responder, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Responder:          responder,
		Provider:           auth.NewProvider(tokens, revoked, logger),
		Metrics:            metrics,
		AuthHandler:        authHandler,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		AttendanceHandler:  attendanceHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", server.Addr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("starting metrics server", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(server.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
