package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orders-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

const userSelect = `
	SELECT u.id, u.email, u.first_name, u.last_name, u.document, u.phone_number, u.address,
		u.photo, u.user_type, u.city_id, u.email_confirmed, u.created_at, u.password_hash,
		u.security_stamp, u.access_failed_count, u.lockout_end,
		ci.name, ci.state_id, s.name, s.country_id, co.name
	FROM users u
	JOIN cities ci ON ci.id = u.city_id
	JOIN states s ON s.id = ci.state_id
	JOIN countries co ON co.id = s.country_id
`

const userFilter = ` WHERE (u.first_name ILIKE $1 OR u.last_name ILIKE $1)`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u       model.User
		city    model.City
		state   model.State
		country model.Country
	)
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Document, &u.PhoneNumber, &u.Address,
		&u.Photo, &u.UserType, &u.CityID, &u.EmailConfirmed, &u.CreatedAt, &u.PasswordHash,
		&u.SecurityStamp, &u.AccessFailedCount, &u.LockoutEnd,
		&city.Name, &city.StateID, &state.Name, &state.CountryID, &country.Name)
	if err != nil {
		return nil, err
	}

	country.ID = state.CountryID
	state.ID = city.StateID
	state.Country = &country
	city.ID = u.CityID
	city.State = &state
	u.City = &city
	return &u, nil
}

func queryUsers(ctx context.Context, db DBTX, query string, args ...any) ([]model.User, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Create inserts a new user. ID, security stamp and creation time are set by the database.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, document, phone_number, address, photo,
			user_type, city_id, password_hash, email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, security_stamp, created_at`,
		u.Email, u.FirstName, u.LastName, u.Document, u.PhoneNumber, u.Address, u.Photo,
		u.UserType, u.CityID, u.PasswordHash, u.EmailConfirmed,
	).Scan(&u.ID, &u.SecurityStamp, &u.CreatedAt)
	if err != nil {
		r.logger.Warn().Err(err).Str("email", u.Email).Msg("failed to create user")
		return translateWriteError(fmt.Errorf("failed to create user: %w", err), writeInsert)
	}

	r.logger.Debug().Str("user_id", u.ID.String()).Msg("user created successfully")
	return nil
}

// GetByID retrieves a user with its address.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("user_id", id.String()).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE LOWER(u.email) = LOWER($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("email", email).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("email", email).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// getByIDs loads several users at once, keyed by id.
func (r *userRepository) getByIDs(ctx context.Context, db DBTX, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	users, err := queryUsers(ctx, db, userSelect+` WHERE u.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID, nil
}

// UpdateProfile stores the editable profile fields.
func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET first_name = $2, last_name = $3, document = $4, phone_number = $5,
			address = $6, photo = $7, city_id = $8
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Document, u.PhoneNumber, u.Address, u.Photo, u.CityID)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to update user")
		return translateWriteError(fmt.Errorf("failed to update user: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// UpdatePassword stores a new hash and security stamp and clears the lockout.
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, stamp uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, security_stamp = $3, access_failed_count = 0, lockout_end = NULL
		WHERE id = $1`, id, passwordHash, stamp)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update password")
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// ConfirmEmail marks the email as confirmed.
func (r *userRepository) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET email_confirmed = TRUE WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to confirm email")
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// UpdateLoginState stores the failed-attempt counter and lockout end.
func (r *userRepository) UpdateLoginState(ctx context.Context, id uuid.UUID, failedCount int, lockoutEnd *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET access_failed_count = $2, lockout_end = $3 WHERE id = $1`, id, failedCount, lockoutEnd)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update login state")
		return fmt.Errorf("failed to update login state: %w", err)
	}
	return nil
}

// List retrieves one page of users filtered by first or last name.
func (r *userRepository) List(ctx context.Context, p model.Pagination) ([]model.User, error) {
	query := userSelect + userFilter + `
		ORDER BY u.first_name, u.last_name
		LIMIT $2 OFFSET $3
	`
	users, err := queryUsers(ctx, r.pool, query, likePattern(p.Filter), p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list users")
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the filter.
func (r *userRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+userFilter, likePattern(p.Filter)).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count users")
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
