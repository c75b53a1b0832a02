package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brianbrunner/just2guys/handlers"
	"github.com/brianbrunner/just2guys/ingest"
	api "github.com/brianbrunner/just2guys/routes"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and run the scheduled pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(true, serve)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}
	logger := a.logger

	go a.hub.Run()
	logger.Info("WebSocket hub started")

	go a.schedule(ctx)

	leagueHandler := handlers.NewLeagueHandler(a.leagueService)
	historyHandler := handlers.NewHistoryHandler(a.historyService)
	authHandler := handlers.NewAuthHandler(a.authService)
	adminHandler := handlers.NewAdminHandler(a.adminService, a.bracketService)
	webSocketHandler := handlers.NewWebSocketHandler(a.hub, a.leagueService, a.cfg.CORSAllowOrigins, logger)
	mcpHandler := handlers.NewMCPHandler(handlers.NewMCPServer(a.leagueService, a.historyService, version))

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:        a.cfg.JWTSecretKey,
			CORSAllowOrigins: a.cfg.CORSAllowOrigins,
			RateLimitRPS:     a.cfg.RateLimitRPS,
			RateLimitBurst:   a.cfg.RateLimitBurst,
		},
		leagueHandler,
		historyHandler,
		authHandler,
		adminHandler,
		webSocketHandler,
		mcpHandler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

// schedule runs one pipeline pass at startup and then on every tick until
// ctx is cancelled.
func (a *app) schedule(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SchedulerInterval)
	defer ticker.Stop()
	a.logger.Info("scheduler started", slog.Duration("interval", a.cfg.SchedulerInterval))

	a.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			a.pass(ctx)
		}
	}
}

// pass re-imports SNAPSHOT_PATH when set, advances every bracket and
// re-renders the site. Failures are logged and retried on the next tick.
func (a *app) pass(ctx context.Context) {
	if path := a.cfg.SnapshotPath; path != "" {
		snap, err := ingest.LoadFile(path)
		if err != nil {
			a.logger.Error("scheduler: snapshot unreadable", slog.String("path", path), slog.Any("error", err))
		} else if _, err := a.ingestService.Import(ctx, snap); err != nil {
			a.logger.Error("scheduler: import failed", slog.Any("error", err))
		}
	}
	if _, err := a.bracketService.AdvanceAll(ctx); err != nil {
		a.logger.Error("scheduler: bracket advance failed", slog.Any("error", err))
	}
	if err := a.renderSite(ctx); err != nil && ctx.Err() == nil {
		a.logger.Error("scheduler: render failed", slog.Any("error", err))
	}
}
