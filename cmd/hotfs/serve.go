package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/auth"
	"github.com/ebogdum/hotfs/config"
	"github.com/ebogdum/hotfs/core"
	"github.com/ebogdum/hotfs/events"
	"github.com/ebogdum/hotfs/hotfolder"
	"github.com/ebogdum/hotfs/server"
)

// runServe starts every configured hotfolder and the admin API
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			// Log to stderr since logger may not be working
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	logger.Info("Starting hotfs",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.Int("hotfolders", len(cfg.Hotfolders)))

	logger.Info("Initializing backends")
	registry, err := buildRegistry(cfg.Backend, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	broadcaster := events.NewBroadcaster()

	logger.Info("Initializing hotfolders")
	manager, err := buildHotfolders(context.Background(), registry, broadcaster, cfg.Hotfolders, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Warn("Failed to close hotfolder handles", zap.Error(err))
		}
	}()
	if err := manager.StartAll(); err != nil {
		return fmt.Errorf("failed to start hotfolders: %w", err)
	}

	authenticator := auth.NewAPIKeyAuthenticator(cfg.Server.APIKeys)
	router := server.NewRouter(registry, manager, broadcaster, authenticator, &cfg.Server, logger)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.Metrics.ListenAddr != "" && cfg.Metrics.ListenAddr != cfg.Server.ListenAddr {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info("Starting metrics server", zap.String("addr", cfg.Metrics.ListenAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.CertFile != "" && cfg.Server.KeyFile != "" {
			logger.Info("Starting HTTPS server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

// buildHotfolders creates one hotfolder per entry. Every arrival is
// published to the broadcaster and, when move_to is set, moved there.
func buildHotfolders(ctx context.Context, registry *core.Registry, broadcaster *events.Broadcaster, entries []config.HotfolderConfig, logger *zap.Logger) (*hotfolder.Manager, error) {
	manager := hotfolder.NewManager(logger)
	fail := func(err error) (*hotfolder.Manager, error) {
		manager.Close()
		return nil, err
	}

	for _, entry := range entries {
		opts, err := hotfolder.OptionsFromConfig(ctx, registry, entry)
		if err != nil {
			return fail(err)
		}

		subscribers := []hotfolder.Subscriber{broadcaster.Subscriber(entry.ID)}
		if entry.MoveTo != "" {
			target, err := registry.ResolveString(ctx, entry.MoveTo)
			if err != nil {
				opts.Folder.Close()
				return fail(fmt.Errorf("failed to resolve move_to of hotfolder %s: %w", entry.ID, err))
			}
			manager.Own(target)
			subscribers = append(subscribers, hotfolder.MoveTo(target, logger))
		}

		h, err := hotfolder.New(opts, hotfolder.Chain(subscribers...), logger)
		if err != nil {
			opts.Folder.Close()
			return fail(fmt.Errorf("failed to create hotfolder %s: %w", entry.ID, err))
		}
		if err := manager.Add(h); err != nil {
			h.Close()
			return fail(err)
		}
	}
	return manager, nil
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
