package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SeedConfig describes the administrator account created by Seed.
// The admin is skipped when Email is empty.
type SeedConfig struct {
	AdminEmail        string
	AdminPasswordHash string
	AdminFirstName    string
	AdminLastName     string
	AdminCity         string
}

type seedState struct {
	name   string
	cities []string
}

type seedCountry struct {
	name   string
	states []seedState
}

var seedCountries = []seedCountry{
	{name: "Colombia", states: []seedState{
		{name: "Antioquia", cities: []string{"Medellín", "Envigado", "Itagüí", "Bello"}},
		{name: "Cundinamarca", cities: []string{"Bogotá", "Soacha", "Zipaquirá"}},
	}},
	{name: "Perú", states: []seedState{
		{name: "Lima", cities: []string{"Lima", "Callao"}},
	}},
	{name: "Argentina", states: []seedState{
		{name: "Buenos Aires", cities: []string{"La Plata", "Mar del Plata"}},
	}},
	{name: "USA", states: []seedState{
		{name: "Florida", cities: []string{"Miami", "Orlando", "Tampa"}},
		{name: "Texas", cities: []string{"Houston", "Austin", "Dallas"}},
	}},
	{name: "Italia", states: []seedState{
		{name: "Lazio", cities: []string{"Roma"}},
	}},
}

var seedCategories = []string{"Tecnología", "Mascotas", "Hogar", "Cosméticos", "Licores"}

// Seed inserts reference data and the administrator account. It is safe to run repeatedly.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg SeedConfig, logger zerolog.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := seedGeography(ctx, tx); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, name := range seedCategories {
		batch.Queue(`INSERT INTO categories (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if cfg.AdminEmail != "" {
		if err := seedAdmin(ctx, tx, cfg); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logger.Info().
		Int("countries", len(seedCountries)).
		Int("categories", len(seedCategories)).
		Bool("admin", cfg.AdminEmail != "").
		Msg("seed data applied")

	return nil
}

func seedGeography(ctx context.Context, tx pgx.Tx) error {
	for _, country := range seedCountries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO countries (name) VALUES ($1) ON CONFLICT DO NOTHING`, country.name); err != nil {
			return fmt.Errorf("failed to seed country %s: %w", country.name, err)
		}

		for _, state := range country.states {
			if _, err := tx.Exec(ctx, `
				INSERT INTO states (name, country_id)
				SELECT $1, id FROM countries WHERE name = $2
				ON CONFLICT DO NOTHING`, state.name, country.name); err != nil {
				return fmt.Errorf("failed to seed state %s: %w", state.name, err)
			}

			for _, city := range state.cities {
				if _, err := tx.Exec(ctx, `
					INSERT INTO cities (name, state_id)
					SELECT $1, s.id FROM states s
					JOIN countries c ON c.id = s.country_id
					WHERE s.name = $2 AND c.name = $3
					ON CONFLICT DO NOTHING`, city, state.name, country.name); err != nil {
					return fmt.Errorf("failed to seed city %s: %w", city, err)
				}
			}
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, tx pgx.Tx, cfg SeedConfig) error {
	city := cfg.AdminCity
	if city == "" {
		city = "Medellín"
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO users (email, first_name, last_name, document, phone_number, address,
			user_type, city_id, password_hash, email_confirmed)
		SELECT $1, $2, $3, '1010', '3000000000', 'Calle Luna Calle Sol', 'Admin', id, $4, TRUE
		FROM cities WHERE name = $5
		ORDER BY id
		LIMIT 1
		ON CONFLICT DO NOTHING`,
		cfg.AdminEmail, cfg.AdminFirstName, cfg.AdminLastName, cfg.AdminPasswordHash, city)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}
