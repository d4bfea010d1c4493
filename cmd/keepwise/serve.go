package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keepwise/infrastructure/config"
	"keepwise/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), opts, cfg, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch-config", true, "Reload the log level when config files change")
	return cmd
}

func serve(parent context.Context, opts *rootOptions, cfg *config.Config, watch bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := container.Logger
	defer logger.Sync() //nolint:errcheck

	if watch {
		watcher, err := config.NewWatcher(opts.configDir, cfg.Environment, cfg, logger)
		if err != nil {
			logger.Warn("Configuration watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				applyLogLevel(container.LogLevel, next.Logging.Level, logger)
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      container.Router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.Server.Address),
			zap.String("environment", cfg.Environment),
			zap.Strings("config_sources", cfg.LoadedFrom),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func applyLogLevel(level zap.AtomicLevel, raw string, logger *zap.Logger) {
	next, err := zapcore.ParseLevel(raw)
	if err != nil {
		logger.Warn("Ignoring invalid log level", zap.String("level", raw))
		return
	}
	if level.Level() == next {
		return
	}
	level.SetLevel(next)
	logger.Info("Log level changed", zap.Stringer("level", next))
}
