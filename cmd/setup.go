package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/library"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Setup initializes the configuration file and the local library index.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
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
	}

	if config.Library.DatabasePath == "" {
		r.writePlain("✓ Configuration ready at %s (no library configured)\n", configPath)
		return nil
	}

	r.logger.Info("initializing library index", "path", config.Library.DatabasePath)
	lib, err := library.Open(config.Library.DatabasePath, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open library index: %w", err)
	}
	defer lib.Close()

	if cmd.Bool("scan") {
		if config.Library.MusicDir == "" {
			return fmt.Errorf("%w: library.music_dir is not set", shared.ErrMissingConfig)
		}
		added, err := lib.Scan(ctx, config.Library.MusicDir)
		if err != nil {
			return fmt.Errorf("library scan failed: %w", err)
		}
		r.writePlain("✓ Indexed %d new tracks from %s\n", added, config.Library.MusicDir)
	}

	total, err := lib.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count tracks: %w", err)
	}
	r.writePlain("✓ Setup complete: %d tracks indexed at %s\n", total, config.Library.DatabasePath)
	return nil
}
