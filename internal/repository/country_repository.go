package repository

import (
	"context"
	"errors"
	"fmt"

	"orders-api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// countryRepository implements CountryRepository using PostgreSQL.
type countryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCountryRepository creates a new PostgreSQL-backed country repository.
func NewCountryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CountryRepository {
	return &countryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "country").Logger(),
	}
}

const countrySelect = `
	SELECT c.id, c.name, (SELECT COUNT(*) FROM states s WHERE s.country_id = c.id)
	FROM countries c
`

func scanCountries(rows pgx.Rows) ([]model.Country, error) {
	defer rows.Close()

	countries := []model.Country{}
	for rows.Next() {
		var c model.Country
		if err := rows.Scan(&c.ID, &c.Name, &c.StatesNumber); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating countries: %w", err)
	}
	return countries, nil
}

// List retrieves one page of countries filtered by name.
func (r *countryRepository) List(ctx context.Context, p model.Pagination) ([]model.Country, error) {
	query := countrySelect + `
		WHERE c.name ILIKE $1
		ORDER BY c.name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, likePattern(p.Filter), p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query countries")
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	return scanCountries(rows)
}

// Count returns the number of countries matching the filter.
func (r *countryRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM countries WHERE name ILIKE $1`, likePattern(p.Filter)).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count countries")
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return count, nil
}

// All retrieves every country with its states.
func (r *countryRepository) All(ctx context.Context) ([]model.Country, error) {
	rows, err := r.pool.Query(ctx, countrySelect+` ORDER BY c.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query countries")
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	countries, err := scanCountries(rows)
	if err != nil {
		return nil, err
	}

	states, err := queryStates(ctx, r.pool, stateSelect+` ORDER BY s.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query states")
		return nil, err
	}

	byCountry := make(map[int][]model.State, len(countries))
	for _, s := range states {
		byCountry[s.CountryID] = append(byCountry[s.CountryID], s)
	}
	for i := range countries {
		countries[i].States = byCountry[countries[i].ID]
	}
	return countries, nil
}

// Combo retrieves every country ordered by name.
func (r *countryRepository) Combo(ctx context.Context, _ int) ([]model.Country, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, 0 FROM countries ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query country combo")
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	return scanCountries(rows)
}

// GetByID retrieves a country with its states.
func (r *countryRepository) GetByID(ctx context.Context, id int) (*model.Country, error) {
	var c model.Country
	err := r.pool.QueryRow(ctx, countrySelect+` WHERE c.id = $1`, id).Scan(&c.ID, &c.Name, &c.StatesNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("country_id", id).Msg("country not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("country_id", id).Msg("failed to query country")
		return nil, fmt.Errorf("failed to query country: %w", err)
	}

	states, err := queryStates(ctx, r.pool, stateSelect+` WHERE s.country_id = $1 ORDER BY s.name`, id)
	if err != nil {
		r.logger.Error().Err(err).Int("country_id", id).Msg("failed to query country states")
		return nil, err
	}
	c.States = states

	return &c, nil
}

// Create inserts a new country and sets its ID.
func (r *countryRepository) Create(ctx context.Context, c *model.Country) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO countries (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		r.logger.Warn().Err(err).Str("name", c.Name).Msg("failed to create country")
		return translateWriteError(fmt.Errorf("failed to create country: %w", err), writeInsert)
	}
	return nil
}

// Update renames a country.
func (r *countryRepository) Update(ctx context.Context, c *model.Country) error {
	tag, err := r.pool.Exec(ctx, `UPDATE countries SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		r.logger.Warn().Err(err).Int("country_id", c.ID).Msg("failed to update country")
		return translateWriteError(fmt.Errorf("failed to update country: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// Delete removes a country that has no states.
func (r *countryRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM countries WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn().Err(err).Int("country_id", id).Msg("failed to delete country")
		return translateWriteError(fmt.Errorf("failed to delete country: %w", err), writeDelete)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}
