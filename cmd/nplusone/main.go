package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"nplusone/internal/config"
	"nplusone/internal/server"
	"nplusone/internal/store"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	var (
		configPath string
		logLevel   string
		port       int
	)

	root := &cobra.Command{
		Use:   "nplusone",
		Short: "Tweet graph JSON-RPC service with request-coalescing data loaders",
		Example: "  nplusone --config config.json\n" +
			"  NPLUSONE_PORT=8080 nplusone --log-level debug",
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override file and environment
			cmd.Flags().Visit(func(f *pflag.Flag) {
				switch f.Name {
				case "log-level":
					cfg.LogLevel = logLevel
				case "port":
					cfg.Port = port
				}
			})
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cfg, configPath)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to JSON config file (optional)")
	root.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	root.Flags().IntVar(&port, "port", config.DefaultPort, "listen port")

	if err := root.Execute(); err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Error().Err(err).Msg("nplusone")
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string) error {
	logger := setupLogger(cfg.LogLevel)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug().Msgf(format, args...)
	})); err != nil {
		logger.Warn().Err(err).Msg("failed to set maxprocs")
	}

	logger.Info().
		Str("config", configPath).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("starting nplusone")

	srv := server.New(cfg, store.NewSeeded(logger), logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
