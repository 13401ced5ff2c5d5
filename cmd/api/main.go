package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/mydailyops/dailyops-api/internal/config"
	apihttp "github.com/mydailyops/dailyops-api/internal/http"
	"github.com/mydailyops/dailyops-api/internal/middleware"
	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/repository"
	"github.com/mydailyops/dailyops-api/internal/scheduler"
	"github.com/mydailyops/dailyops-api/internal/service"
)

// userResolverAdapter adapts a user repository to the middleware.UserResolver interface.
type userResolverAdapter struct {
	repo interface {
		GetBySubject(ctx context.Context, subject string) (model.User, error)
	}
}

func (a *userResolverAdapter) ResolveUserID(ctx context.Context, subject string) (string, error) {
	user, err := a.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", middleware.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}
	return user.ID, nil
}

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
		"sweep_interval", cfg.SweepInterval.String(),
	)

	// Database connection
	db, err := repository.NewDB(cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	// Repositories
	taskRepo := repository.NewPostgresTask(db)
	userRepo := repository.NewPostgresUser(db)

	// Services
	lifecycle := service.NewLifecycleService(taskRepo, logger)
	taskSvc := service.NewTaskService(taskRepo, lifecycle)
	calendarSvc := service.NewCalendarService(taskRepo)

	// Periodic sweep restores the one-active-occurrence invariant for
	// recurring templates whose instance was completed or removed.
	sched := scheduler.New(lifecycle, logger)
	if _, err := sched.ScheduleSweep(cfg.SweepInterval); err != nil {
		return fmt.Errorf("failed to schedule lifecycle sweep: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Auth middleware
	authCfg := middleware.AuthConfig{
		DevMode: cfg.AuthDevMode,
	}
	if !cfg.AuthDevMode {
		authCfg.JWKSClient = middleware.NewJWKSClient(cfg.OIDC.ResolvedJWKSURL())
		authCfg.Issuer = cfg.OIDC.Issuer
		authCfg.Audience = cfg.OIDC.Audience
		authCfg.UserResolver = &userResolverAdapter{repo: userRepo}
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// HTTP Server
	srv := apihttp.NewServer(cfg.ServerPort, logger, taskSvc, calendarSvc, auth)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
