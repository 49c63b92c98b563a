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

// categoryRepository implements CategoryRepository using PostgreSQL.
type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

const categorySelect = `
	SELECT c.id, c.name, (SELECT COUNT(*) FROM product_categories pc WHERE pc.category_id = c.id)
	FROM categories c
`

func queryCategories(ctx context.Context, db DBTX, query string, args ...any) ([]model.Category, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ProductCategoriesNumber); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// List retrieves one page of categories filtered by name.
func (r *categoryRepository) List(ctx context.Context, p model.Pagination) ([]model.Category, error) {
	query := categorySelect + `
		WHERE c.name ILIKE $1
		ORDER BY c.name
		LIMIT $2 OFFSET $3
	`

	categories, err := queryCategories(ctx, r.pool, query, likePattern(p.Filter), p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list categories")
		return nil, err
	}
	return categories, nil
}

// Count returns the number of categories matching the filter.
func (r *categoryRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE name ILIKE $1`, likePattern(p.Filter)).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count categories")
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// All retrieves every category.
func (r *categoryRepository) All(ctx context.Context) ([]model.Category, error) {
	categories, err := queryCategories(ctx, r.pool, categorySelect+` ORDER BY c.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, err
	}
	return categories, nil
}

// Combo retrieves every category ordered by name.
func (r *categoryRepository) Combo(ctx context.Context, _ int) ([]model.Category, error) {
	categories, err := queryCategories(ctx, r.pool, `SELECT id, name, 0 FROM categories ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query category combo")
		return nil, err
	}
	return categories, nil
}

// GetByID retrieves a single category.
func (r *categoryRepository) GetByID(ctx context.Context, id int) (*model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.ProductCategoriesNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("category_id", id).Msg("category not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("category_id", id).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

// Create inserts a new category and sets its ID.
func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		r.logger.Warn().Err(err).Str("name", c.Name).Msg("failed to create category")
		return translateWriteError(fmt.Errorf("failed to create category: %w", err), writeInsert)
	}
	return nil
}

// Update renames a category.
func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		r.logger.Warn().Err(err).Int("category_id", c.ID).Msg("failed to update category")
		return translateWriteError(fmt.Errorf("failed to update category: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// Delete removes a category no product is linked to.
func (r *categoryRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn().Err(err).Int("category_id", id).Msg("failed to delete category")
		return translateWriteError(fmt.Errorf("failed to delete category: %w", err), writeDelete)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}
