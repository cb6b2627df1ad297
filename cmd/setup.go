package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file if it is missing, then runs migrations against the configured database.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
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
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
		config = shared.DefaultConfig()
	}

	db, dialect, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db, dialect); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Info("setup complete", "driver", dialect.Driver)
	return nil
}

// SetupSeed loads a TOML fixture into the configured database, migrating it first.
func (r *Runner) SetupSeed(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	seed, err := shared.LoadSeed(cmd.String("file"))
	if err != nil {
		return err
	}

	db, dialect, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db, dialect); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := repositories.NewRecordRepository(db, dialect).Seed(ctx, seed); err != nil {
		return err
	}

	r.logger.Info("seed loaded", "file", cmd.String("file"))
	return r.writePlain("Loaded %d artists, %d shops, %d records, %d copies\n",
		len(seed.Artists), len(seed.Shops), len(seed.Records), len(seed.Copies))
}

// SetupRollback rolls back the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, dialect, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db, dialect); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	r.logger.Info("rolled back latest migration")
	return nil
}

func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, shared.Dialect, error) {
	r.logger.Info("opening database", "driver", config.Database.Driver, "path", config.Database.Path)

	db, dialect, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, shared.Dialect{}, fmt.Errorf("failed to open database: %w", err)
	}
	return db, dialect, nil
}
