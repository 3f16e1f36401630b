package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/swipearr/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if v := os.Getenv("SWIPEARR_CONFIG"); v != "" {
		configPath = v
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, shared.ErrMissingConfig) {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
		config = shared.DefaultConfig()
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "swipearr",
		Usage:    "Swipe through your Plex libraries and curate Maintainerr collections",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
