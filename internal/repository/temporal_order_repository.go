package repository

import (
	"context"
	"errors"
	"fmt"

	"orders-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// temporalOrderRepository implements TemporalOrderRepository using PostgreSQL.
type temporalOrderRepository struct {
	pool     *pgxpool.Pool
	products *productRepository
	logger   zerolog.Logger
}

// NewTemporalOrderRepository creates a new PostgreSQL-backed cart repository.
func NewTemporalOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) TemporalOrderRepository {
	return &temporalOrderRepository{
		pool: pool,
		products: &productRepository{
			pool:   pool,
			logger: logger.With().Str("repository", "product").Logger(),
		},
		logger: logger.With().Str("repository", "temporal_order").Logger(),
	}
}

const temporalOrderSelect = `SELECT id, user_id, product_id, quantity, remarks FROM temporal_orders`

func queryTemporalOrders(ctx context.Context, db DBTX, query string, args ...any) ([]model.TemporalOrder, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []model.TemporalOrder{}
	for rows.Next() {
		var t model.TemporalOrder
		if err := rows.Scan(&t.ID, &t.UserID, &t.ProductID, &t.Quantity, &t.Remarks); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}
	return lines, nil
}

// attachProducts loads the referenced products and computes each line value.
func (r *temporalOrderRepository) attachProducts(ctx context.Context, db DBTX, lines []model.TemporalOrder) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	products, err := r.products.getByIDs(ctx, db, ids)
	if err != nil {
		return err
	}

	byID := make(map[int]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range lines {
		lines[i].Product = byID[lines[i].ProductID]
		lines[i].ComputeValue()
	}
	return nil
}

// Create inserts a cart line and sets its ID.
func (r *temporalOrderRepository) Create(ctx context.Context, line *model.TemporalOrder) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO temporal_orders (user_id, product_id, quantity, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		line.UserID, line.ProductID, line.Quantity, line.Remarks).Scan(&line.ID)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("user_id", line.UserID.String()).
			Int("product_id", line.ProductID).
			Msg("failed to create cart line")
		return translateWriteError(fmt.Errorf("failed to create cart line: %w", err), writeInsert)
	}
	return nil
}

// GetByID retrieves a cart line with its product.
func (r *temporalOrderRepository) GetByID(ctx context.Context, id int) (*model.TemporalOrder, error) {
	var t model.TemporalOrder
	err := r.pool.QueryRow(ctx, temporalOrderSelect+` WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.ProductID, &t.Quantity, &t.Remarks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("temporal_order_id", id).Msg("cart line not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("temporal_order_id", id).Msg("failed to query cart line")
		return nil, fmt.Errorf("failed to query cart line: %w", err)
	}

	lines := []model.TemporalOrder{t}
	if err := r.attachProducts(ctx, r.pool, lines); err != nil {
		r.logger.Error().Err(err).Int("temporal_order_id", id).Msg("failed to load cart line product")
		return nil, err
	}
	return &lines[0], nil
}

// ListByUser retrieves the user's cart with products.
func (r *temporalOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TemporalOrder, error) {
	lines, err := queryTemporalOrders(ctx, r.pool, temporalOrderSelect+` WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list cart")
		return nil, err
	}
	if err := r.attachProducts(ctx, r.pool, lines); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load cart products")
		return nil, err
	}
	return lines, nil
}

// SumQuantity returns the total quantity in the user's cart.
func (r *temporalOrderRepository) SumQuantity(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM temporal_orders WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to count cart")
		return 0, fmt.Errorf("failed to count cart: %w", err)
	}
	return total, nil
}

// Update changes the quantity and remarks of a cart line.
func (r *temporalOrderRepository) Update(ctx context.Context, line *model.TemporalOrder) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE temporal_orders SET quantity = $2, remarks = $3 WHERE id = $1`,
		line.ID, line.Quantity, line.Remarks)
	if err != nil {
		r.logger.Warn().Err(err).Int("temporal_order_id", line.ID).Msg("failed to update cart line")
		return translateWriteError(fmt.Errorf("failed to update cart line: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// Delete removes a cart line.
func (r *temporalOrderRepository) Delete(ctx context.Context, id int) error {
	return r.delete(ctx, r.pool, id)
}

// ListByUserTx reads and locks the user's cart inside tx. A concurrent
// checkout of the same cart waits here and then sees the lines it removed.
func (r *temporalOrderRepository) ListByUserTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.TemporalOrder, error) {
	lines, err := queryTemporalOrders(ctx, tx, temporalOrderSelect+` WHERE user_id = $1 ORDER BY product_id, id FOR UPDATE`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to read cart for checkout")
		return nil, err
	}
	return lines, nil
}

// DeleteTx removes a cart line inside tx.
func (r *temporalOrderRepository) DeleteTx(ctx context.Context, tx pgx.Tx, id int) error {
	return r.delete(ctx, tx, id)
}

func (r *temporalOrderRepository) delete(ctx context.Context, db DBTX, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM temporal_orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int("temporal_order_id", id).Msg("failed to delete cart line")
		return translateWriteError(fmt.Errorf("failed to delete cart line: %w", err), writeDelete)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}
