package main

import (
	"context"
	"os"
	"time"

	"github.com/desertthunder/loopback/internal/capture"
	"github.com/desertthunder/loopback/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	registry := capture.NewRegistry(logger)

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Registry: registry,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "loopback",
		Usage:    "Capture browser OAuth redirects on a short-lived local port",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)

	// Reclaim any session a command left running before the process exits.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	registry.Shutdown(shutdownCtx)
	cancel()

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
