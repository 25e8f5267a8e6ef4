package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/roster/internal/metrics"
	"github.com/JonMunkholm/roster/internal/web"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	m := metrics.New()
	service := newService(m)
	server := web.NewServer(service, cfg, m)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"sheet_configured", cfg.Sheets.Configured(),
		"fetch_max_concurrent", cfg.Fetch.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err.Error())
			return err
		}
		return nil
	case <-cmd.Context().Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if active := service.Limiter().ActiveCount(); active > 0 {
		slog.Info("waiting for fetches to complete", "active", active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err.Error())
		return err
	}

	slog.Info("server stopped")
	return nil
}
