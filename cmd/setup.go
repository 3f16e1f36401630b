package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/swipearr/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes a config file if none exists, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	case err != nil:
		r.logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenStateDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Config: %s\n", configPath)
	r.writePlain("✓ Database: %s\n", config.Database.Path)
	r.writePlainln("Next: swipearr connect --url <server> --api-key <key>")
	return nil
}
