package main

import (
	"context"
	"fmt"

	"orders-api/internal/auth"
	"orders-api/internal/config"
	"orders-api/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const adminPasswordCost = 12

// bootDB loads config and opens the database pool.
func bootDB(ctx context.Context) (*config.Config, *pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, logger, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, pool, logger, nil
}

// orders-api migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, pool, logger, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		return database.Migrate(ctx, pool, logger)
	},
}

// orders-api seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert reference data and the administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pool, logger, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}

		seed := database.SeedConfig{
			AdminEmail:     cfg.Seed.AdminEmail,
			AdminFirstName: "Admin",
			AdminLastName:  "Orders",
		}
		if seed.AdminEmail != "" {
			if cfg.Seed.AdminPassword == "" {
				return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
			}
			hash, err := auth.NewBcryptHasher(adminPasswordCost).Hash(cfg.Seed.AdminPassword)
			if err != nil {
				return fmt.Errorf("failed to hash admin password: %w", err)
			}
			seed.AdminPasswordHash = hash
		}

		return database.Seed(ctx, pool, seed, logger)
	},
}
