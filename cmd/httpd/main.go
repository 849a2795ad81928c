// Command httpd runs the audit engine HTTP service: submission API,
// background audit processor, health and metrics endpoints.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jonesrussell/audit-engine/internal/bootstrap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	components, err := bootstrap.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Redis.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components.Processor.Start(ctx)

	logger.Info("audit engine starting",
		"port", cfg.Service.Port,
		"version", cfg.Service.Version,
		"workers", cfg.Service.Concurrency)

	// Blocks until SIGINT/SIGTERM, then drains connections.
	if err := components.Server.RunWithGracefulShutdown(ctx); err != nil {
		return err
	}

	// Stop the workers after the HTTP surface is down.
	cancel()
	components.Processor.Wait()
	logger.Info("audit engine stopped")
	return nil
}
