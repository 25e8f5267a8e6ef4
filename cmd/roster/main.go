// Command roster serves spreadsheet rows as a JSON record API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/httpretry"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/metrics"
	"github.com/JonMunkholm/roster/internal/sheets"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Spreadsheet-backed record API",
	Long: `Roster reads a Google Sheets range, maps every row to a record with a
stable id, and serves the records as JSON. When the sheet is not configured
or cannot be read it serves a built-in sample set instead.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded over the environment")
	rootCmd.AddCommand(serveCmd, checkCmd)
}

// setup loads the dotenv file and configuration and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	// Overload overwrites existing env vars
	if err := godotenv.Overload(envFile); err != nil {
		slog.Info("no .env file found, using environment variables", "path", envFile)
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)", "path", envFile)
	}

	loaded, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err.Error())
		return err
	}
	cfg = loaded

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// newService wires the sheet client, id registry, settings and fetch
// limiter. m may be nil.
func newService(m *metrics.Metrics) *core.Service {
	rc := httpretry.New(nil, httpretry.Defaults{
		Retries:    cfg.Fetch.Retries,
		RetryDelay: cfg.Fetch.RetryDelay,
		Timeout:    cfg.Fetch.Timeout,
		OnAttempt:  m.ObserveAttempt,
	})

	ids := core.NewIDRegistry()
	m.RegisterStoredIDs(ids.Len)

	settings := core.NewSettingsStore(core.DisplaySettings{
		VisibleColumns: cfg.Display.VisibleColumns,
		IDColumn:       cfg.Display.IDColumn,
	})

	opts := []core.ServiceOption{
		core.WithLimiter(core.NewFetchLimiter(cfg.Fetch.MaxConcurrent, cfg.Fetch.MaxWait)),
	}
	if m != nil {
		opts = append(opts, core.WithObserver(m))
	}
	return core.NewService(sheets.NewClient(rc, cfg.Sheets), ids, settings, opts...)
}
