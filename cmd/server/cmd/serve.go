package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/communitycal/server/internal/api"
	"github.com/communitycal/server/internal/config"
	"github.com/communitycal/server/internal/metrics"
	"github.com/communitycal/server/internal/storage/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int

	skipMigrations bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CommunityCal HTTP server",
	Long: `Start the CommunityCal HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Apply pending database migrations (unless --skip-migrations)
- Start the HTTP server with the calendar API endpoints
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 3000)")
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not run database migrations at startup")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Override config with flags if provided
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting CommunityCal server")

	metrics.Init(Version, GitCommit, BuildDate)

	if !skipMigrations {
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		logger.Info().Msg("database migrations applied")
	}

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.Connect(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	// Sample pool stats every 15 seconds
	dbCollector := metrics.NewDBCollector(pool, 15*time.Second)
	dbCollector.Start()
	defer dbCollector.Stop()

	handler, stopRouter, err := api.NewRouter(cfg, logger, pool, Version)
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}
	defer stopRouter()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	waitForShutdown(server, logger)
	return nil
}

func waitForShutdown(server *http.Server, logger zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		_ = server.Close()
		return
	}
	logger.Info().Msg("server stopped")
}
