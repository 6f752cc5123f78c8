package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playq/internal/shared"
)

// Setup writes the example config when none exists, then initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); errors.Is(err, os.ErrNotExist) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				return err
			}
			r.writePlain("✓ Wrote %s\n", r.configPath)
		}
	}

	r.logger.Info("initializing database", "driver", r.config.Database.Driver)
	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for %s database", r.config.Database.Driver)
	return r.writePlain("✓ Database ready (schema version %d)\n", version)
}

// MigrateUp applies pending migrations.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	return r.writePlain("✓ Schema is at version %d\n", version)
}

// MigrateRollback reverts the most recent migration.
func (r *Runner) MigrateRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	dialect := shared.DialectFor(r.config.Database.Driver)
	before, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := shared.RollbackMigration(db, dialect); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	after, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Warn("rolled back migration", "from", before, "to", after)
	return r.writePlain("✓ Rolled back version %d (now at %d)\n", before, after)
}

// MigrateStatus prints the current schema version without applying anything.
func (r *Runner) MigrateStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version (run 'playq migrate up' first): %w", err)
	}
	return r.writePlain("Schema version: %d\n", version)
}
