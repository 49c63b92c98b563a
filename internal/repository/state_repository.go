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

// stateRepository implements StateRepository using PostgreSQL.
type stateRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStateRepository creates a new PostgreSQL-backed state repository.
func NewStateRepository(pool *pgxpool.Pool, logger zerolog.Logger) StateRepository {
	return &stateRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "state").Logger(),
	}
}

const stateSelect = `
	SELECT s.id, s.name, s.country_id, (SELECT COUNT(*) FROM cities ci WHERE ci.state_id = s.id)
	FROM states s
`

func queryStates(ctx context.Context, db DBTX, query string, args ...any) ([]model.State, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	states := []model.State{}
	for rows.Next() {
		var s model.State
		if err := rows.Scan(&s.ID, &s.Name, &s.CountryID, &s.CitiesNumber); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating states: %w", err)
	}
	return states, nil
}

// List retrieves one page of states, restricted to p.ID's country when set.
func (r *stateRepository) List(ctx context.Context, p model.Pagination) ([]model.State, error) {
	query := stateSelect + `
		WHERE ($1 = 0 OR s.country_id = $1) AND s.name ILIKE $2
		ORDER BY s.name
		LIMIT $3 OFFSET $4
	`

	states, err := queryStates(ctx, r.pool, query, p.ID, likePattern(p.Filter), p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).Int("country_id", p.ID).Msg("failed to list states")
		return nil, err
	}
	return states, nil
}

// Count returns the number of states matching the filter.
func (r *stateRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM states WHERE ($1 = 0 OR country_id = $1) AND name ILIKE $2`,
		p.ID, likePattern(p.Filter)).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count states")
		return 0, fmt.Errorf("failed to count states: %w", err)
	}
	return count, nil
}

// All retrieves every state with its cities.
func (r *stateRepository) All(ctx context.Context) ([]model.State, error) {
	states, err := queryStates(ctx, r.pool, stateSelect+` ORDER BY s.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query states")
		return nil, err
	}

	cities, err := queryCities(ctx, r.pool, citySelect+` ORDER BY ci.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query cities")
		return nil, err
	}

	byState := make(map[int][]model.City, len(states))
	for _, c := range cities {
		byState[c.StateID] = append(byState[c.StateID], c)
	}
	for i := range states {
		states[i].Cities = byState[states[i].ID]
	}
	return states, nil
}

// Combo retrieves the states of one country ordered by name.
func (r *stateRepository) Combo(ctx context.Context, countryID int) ([]model.State, error) {
	states, err := queryStates(ctx, r.pool,
		`SELECT id, name, country_id, 0 FROM states WHERE country_id = $1 ORDER BY name`, countryID)
	if err != nil {
		r.logger.Error().Err(err).Int("country_id", countryID).Msg("failed to query state combo")
		return nil, err
	}
	return states, nil
}

// GetByID retrieves a state with its cities.
func (r *stateRepository) GetByID(ctx context.Context, id int) (*model.State, error) {
	var s model.State
	err := r.pool.QueryRow(ctx, stateSelect+` WHERE s.id = $1`, id).
		Scan(&s.ID, &s.Name, &s.CountryID, &s.CitiesNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("state_id", id).Msg("state not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("state_id", id).Msg("failed to query state")
		return nil, fmt.Errorf("failed to query state: %w", err)
	}

	cities, err := queryCities(ctx, r.pool, citySelect+` WHERE ci.state_id = $1 ORDER BY ci.name`, id)
	if err != nil {
		r.logger.Error().Err(err).Int("state_id", id).Msg("failed to query state cities")
		return nil, err
	}
	s.Cities = cities

	return &s, nil
}

// Create inserts a new state and sets its ID.
func (r *stateRepository) Create(ctx context.Context, s *model.State) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO states (name, country_id) VALUES ($1, $2) RETURNING id`, s.Name, s.CountryID).Scan(&s.ID)
	if err != nil {
		r.logger.Warn().Err(err).Str("name", s.Name).Msg("failed to create state")
		return translateWriteError(fmt.Errorf("failed to create state: %w", err), writeInsert)
	}
	return nil
}

// Update changes the name and country of a state.
func (r *stateRepository) Update(ctx context.Context, s *model.State) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE states SET name = $2, country_id = $3 WHERE id = $1`, s.ID, s.Name, s.CountryID)
	if err != nil {
		r.logger.Warn().Err(err).Int("state_id", s.ID).Msg("failed to update state")
		return translateWriteError(fmt.Errorf("failed to update state: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// Delete removes a state that has no cities.
func (r *stateRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM states WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn().Err(err).Int("state_id", id).Msg("failed to delete state")
		return translateWriteError(fmt.Errorf("failed to delete state: %w", err), writeDelete)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}
