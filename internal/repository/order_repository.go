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

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool     *pgxpool.Pool
	products *productRepository
	users    *userRepository
	logger   zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool: pool,
		products: &productRepository{
			pool:   pool,
			logger: logger.With().Str("repository", "product").Logger(),
		},
		users: &userRepository{
			pool:   pool,
			logger: logger.With().Str("repository", "user").Logger(),
		},
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderSelect = `SELECT o.id, o.date, o.user_id, o.remarks, o.order_status FROM orders o`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(&o.ID, &o.Date, &o.UserID, &o.Remarks, &o.OrderStatus)
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (date, user_id, remarks, order_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := tx.QueryRow(ctx, query, order.Date, order.UserID, order.Remarks, order.OrderStatus).Scan(&order.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", order.UserID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderDetails inserts the order lines within the provided transaction.
func (r *orderRepository) CreateOrderDetails(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_details (order_id, product_id, quantity, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, d := range details {
		batch.Queue(query, d.OrderID, d.ProductID, d.Quantity, d.Remarks)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range details {
		if err := results.QueryRow().Scan(&details[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int("order_id", details[i].OrderID).
				Int("product_id", details[i].ProductID).
				Msg("failed to create order detail")
			return fmt.Errorf("failed to create order detail: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(details)).
		Msg("order details created successfully")

	return nil
}

// List retrieves one page of orders, newest first.
func (r *orderRepository) List(ctx context.Context, p model.Pagination, userID *uuid.UUID) ([]model.Order, error) {
	query := orderSelect + `
		WHERE ($1::uuid IS NULL OR o.user_id = $1)
		ORDER BY o.date DESC, o.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadRelations(ctx, r.pool, orders, true); err != nil {
		r.logger.Error().Err(err).Msg("failed to load order relations")
		return nil, err
	}
	return orders, nil
}

// Count returns the number of orders visible to userID (all when nil).
func (r *orderRepository) Count(ctx context.Context, userID *uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1::uuid IS NULL OR user_id = $1)`, userID).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// GetByID retrieves an order with its user and details.
func (r *orderRepository) GetByID(ctx context.Context, id int) (*model.Order, error) {
	var order model.Order
	err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.loadRelations(ctx, r.pool, orders, true); err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to load order relations")
		return nil, err
	}
	return &orders[0], nil
}

// GetForUpdate locks the order row and loads its details without products.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error) {
	var order model.Order
	err := scanOrder(tx.QueryRow(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE`, id), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.loadRelations(ctx, tx, orders, false); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// UpdateStatus sets the order status inside tx.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET order_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Str("status", status.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound("order")
	}
	return nil
}

// loadRelations fills details for every order. With full set, it also loads
// users and the products behind each detail, then recomputes totals.
func (r *orderRepository) loadRelations(ctx context.Context, db DBTX, orders []model.Order, full bool) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Details = []model.OrderDetail{}
	}

	rows, err := db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, remarks
		FROM order_details
		WHERE order_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query order details: %w", err)
	}
	productIDs := []int{}
	for rows.Next() {
		var d model.OrderDetail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity, &d.Remarks); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan order detail: %w", err)
		}
		o := &orders[index[d.OrderID]]
		o.Details = append(o.Details, d)
		productIDs = append(productIDs, d.ProductID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order details: %w", err)
	}

	if full {
		products, err := r.products.getByIDs(ctx, db, productIDs)
		if err != nil {
			return err
		}
		byProduct := make(map[int]*model.Product, len(products))
		for i := range products {
			byProduct[products[i].ID] = &products[i]
		}

		userIDs := make([]uuid.UUID, 0, len(orders))
		for _, o := range orders {
			userIDs = append(userIDs, o.UserID)
		}
		users, err := r.users.getByIDs(ctx, db, userIDs)
		if err != nil {
			return err
		}

		for i := range orders {
			orders[i].User = users[orders[i].UserID]
			for j := range orders[i].Details {
				orders[i].Details[j].Product = byProduct[orders[i].Details[j].ProductID]
			}
		}
	}

	for i := range orders {
		orders[i].Summarize()
	}
	return nil
}
