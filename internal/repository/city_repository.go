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

// cityRepository implements CityRepository using PostgreSQL.
type cityRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCityRepository creates a new PostgreSQL-backed city repository.
func NewCityRepository(pool *pgxpool.Pool, logger zerolog.Logger) CityRepository {
	return &cityRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "city").Logger(),
	}
}

const citySelect = `SELECT ci.id, ci.name, ci.state_id FROM cities ci`

func queryCities(ctx context.Context, db DBTX, query string, args ...any) ([]model.City, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities := []model.City{}
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.StateID); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cities: %w", err)
	}
	return cities, nil
}

// List retrieves one page of cities, restricted to p.ID's state when set.
func (r *cityRepository) List(ctx context.Context, p model.Pagination) ([]model.City, error) {
	query := citySelect + `
		WHERE ($1 = 0 OR ci.state_id = $1) AND ci.name ILIKE $2
		ORDER BY ci.name
		LIMIT $3 OFFSET $4
	`

	cities, err := queryCities(ctx, r.pool, query, p.ID, likePattern(p.Filter), p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).Int("state_id", p.ID).Msg("failed to list cities")
		return nil, err
	}
	return cities, nil
}

// Count returns the number of cities matching the filter.
func (r *cityRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cities WHERE ($1 = 0 OR state_id = $1) AND name ILIKE $2`,
		p.ID, likePattern(p.Filter)).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count cities")
		return 0, fmt.Errorf("failed to count cities: %w", err)
	}
	return count, nil
}

// All retrieves every city.
func (r *cityRepository) All(ctx context.Context) ([]model.City, error) {
	cities, err := queryCities(ctx, r.pool, citySelect+` ORDER BY ci.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query cities")
		return nil, err
	}
	return cities, nil
}

// Combo retrieves the cities of one state ordered by name.
func (r *cityRepository) Combo(ctx context.Context, stateID int) ([]model.City, error) {
	cities, err := queryCities(ctx, r.pool, citySelect+` WHERE ci.state_id = $1 ORDER BY ci.name`, stateID)
	if err != nil {
		r.logger.Error().Err(err).Int("state_id", stateID).Msg("failed to query city combo")
		return nil, err
	}
	return cities, nil
}

// GetByID retrieves a single city.
func (r *cityRepository) GetByID(ctx context.Context, id int) (*model.City, error) {
	var c model.City
	err := r.pool.QueryRow(ctx, citySelect+` WHERE ci.id = $1`, id).Scan(&c.ID, &c.Name, &c.StateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("city_id", id).Msg("city not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("city_id", id).Msg("failed to query city")
		return nil, fmt.Errorf("failed to query city: %w", err)
	}
	return &c, nil
}

// Create inserts a new city and sets its ID.
func (r *cityRepository) Create(ctx context.Context, c *model.City) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cities (name, state_id) VALUES ($1, $2) RETURNING id`, c.Name, c.StateID).Scan(&c.ID)
	if err != nil {
		r.logger.Warn().Err(err).Str("name", c.Name).Msg("failed to create city")
		return translateWriteError(fmt.Errorf("failed to create city: %w", err), writeInsert)
	}
	return nil
}

// Update changes the name and state of a city.
func (r *cityRepository) Update(ctx context.Context, c *model.City) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cities SET name = $2, state_id = $3 WHERE id = $1`, c.ID, c.Name, c.StateID)
	if err != nil {
		r.logger.Warn().Err(err).Int("city_id", c.ID).Msg("failed to update city")
		return translateWriteError(fmt.Errorf("failed to update city: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// Delete removes a city no user lives in.
func (r *cityRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn().Err(err).Int("city_id", id).Msg("failed to delete city")
		return translateWriteError(fmt.Errorf("failed to delete city: %w", err), writeDelete)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}
