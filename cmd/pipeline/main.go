// Package main is the command line entry point of the dataset builder.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dex-spillover-lab/internal/config"
	"dex-spillover-lab/internal/logger"
	"dex-spillover-lab/internal/observability"
)

type rootFlags struct {
	configDir string
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Build the leakage-free DEX/CEX spillover feature dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "Directory containing config.yaml")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text, json, tint")

	root.AddCommand(
		newRunCmd(flags),
		newHorizonsCmd(flags),
		newMigrateCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// env is the loaded configuration plus the ambient services of one command.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// load reads the configuration, applies flag overrides and builds the logger.
func (f *rootFlags) load() (*env, error) {
	cfg, err := config.Load(f.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &env{cfg: cfg, logger: log, metrics: observability.NewMetrics("")}, nil
}

// serveMetrics exposes /metrics while a command runs. The returned function stops the server.
func (e *env) serveMetrics() func() {
	if e.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", e.metrics.Handler())
	srv := &http.Server{Addr: e.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		e.logger.Info("Starting prometheus", slog.String("addr", e.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("failed to start prometheus server", slog.String("err", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			e.logger.Error("failed to stop prometheus server", slog.String("err", err.Error()))
		}
	}
}
