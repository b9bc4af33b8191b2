package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/traktcache/internal/api"
	"github.com/amaumene/traktcache/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the retry scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe()
	},
}

func runServe() error {
	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	logger.Info("Starting traktcache")

	// Initialize scheduler
	sched := scheduler.NewScheduler(a.cfg.RetrySchedule, a.sync, a.flags, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// Initialize HTTP server
	server := api.NewServer(a.cfg, api.Controllers{
		Query:   a.query,
		Refresh: a.refresh,
		Flags:   a.flags,
	}, a.registry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("traktcache is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("traktcache stopped")
	return nil
}
