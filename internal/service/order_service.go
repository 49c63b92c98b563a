package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orders-api/internal/metrics"
	"orders-api/internal/model"
	"orders-api/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orders   repository.OrderRepository
	carts    repository.TemporalOrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service. m may be nil.
func NewOrderService(
	orders repository.OrderRepository,
	carts repository.TemporalOrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orders:   orders,
		carts:    carts,
		products: products,
		users:    users,
		metrics:  m,
		logger:   logger.With().Str("service", "order").Logger(),
		now:      time.Now,
	}
}

// Checkout validates the whole cart against locked stock, then creates the
// order, decrements stock and empties the cart in the same transaction.
// The first failing line aborts the checkout without side effects.
func (s *orderService) Checkout(ctx context.Context, email string, req *model.CheckoutRequest) error {
	user, err := resolveUser(ctx, s.users, email)
	if err != nil {
		return err
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			s.rollback(ctx, tx)
		}
	}()

	lines, err := s.carts.ListByUserTx(ctx, tx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return model.ErrEmptyCart
	}

	// Lines come ordered by product id, so rows are locked in a stable order.
	products := make(map[int]*model.Product)
	demand := make(map[int]int)
	var productOrder []int
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			product, err = s.products.GetForUpdate(ctx, tx, line.ProductID)
			if err != nil {
				return fmt.Errorf("failed to lock product: %w", err)
			}
			if product == nil {
				s.logger.Warn().Int("product_id", line.ProductID).Msg("cart references a missing product")
				return model.ProductUnavailable(line.ProductID)
			}
			products[line.ProductID] = product
			productOrder = append(productOrder, line.ProductID)
		}

		demand[line.ProductID] += line.Quantity
		if product.Stock < demand[line.ProductID] {
			s.logger.Info().
				Int("product_id", product.ID).
				Int("stock", product.Stock).
				Int("requested", demand[line.ProductID]).
				Msg("insufficient stock")
			return model.InsufficientStock(product.Name)
		}
	}

	order := &model.Order{
		Date:        s.now().UTC(),
		UserID:      user.ID,
		Remarks:     req.Remarks,
		OrderStatus: model.OrderStatusNew,
	}
	if err = s.orders.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	details := make([]model.OrderDetail, 0, len(lines))
	value := decimal.Zero
	for _, line := range lines {
		product := products[line.ProductID]
		details = append(details, model.OrderDetail{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Remarks:   line.Remarks,
		})
		value = value.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))

		if err = s.carts.DeleteTx(ctx, tx, line.ID); err != nil {
			return fmt.Errorf("failed to clear cart line: %w", err)
		}
	}

	for _, id := range productOrder {
		if err = s.products.AdjustStock(ctx, tx, id, -demand[id]); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
	}

	if err = s.orders.CreateOrderDetails(ctx, tx, details); err != nil {
		s.logger.Error().
			Err(err).
			Int("order_id", order.ID).
			Int("detail_count", len(details)).
			Msg("failed to create order details")
		return fmt.Errorf("failed to create order details: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int("order_id", order.ID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}
	committed = true

	if s.metrics != nil {
		s.metrics.OrdersPlaced.Inc()
		s.metrics.OrderValue.Observe(value.InexactFloat64())
	}

	s.logger.Info().
		Int("order_id", order.ID).
		Str("user_id", user.ID.String()).
		Int("line_count", len(details)).
		Str("value", value.String()).
		Msg("order created successfully")
	return nil
}

// UpdateStatus changes the status of an order. Users may only cancel their
// own orders; cancelling puts the ordered quantities back in stock.
func (s *orderService) UpdateStatus(ctx context.Context, caller Caller, req *model.OrderStatusRequest) (*model.Order, error) {
	if !req.OrderStatus.Valid() {
		return nil, model.ValidationFailed(fmt.Sprintf("invalid order status: %d", int(req.OrderStatus)))
	}
	if !caller.IsAdmin() && req.OrderStatus != model.OrderStatusCancelled {
		return nil, model.ErrAdminOnly
	}

	user, err := resolveUser(ctx, s.users, caller.Email)
	if err != nil {
		return nil, err
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			s.rollback(ctx, tx)
		}
	}()

	order, err := s.orders.GetForUpdate(ctx, tx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil || (!caller.IsAdmin() && order.UserID != user.ID) {
		return nil, model.NotFound("order")
	}
	if order.OrderStatus == model.OrderStatusCancelled {
		return nil, model.ErrOrderCancelled
	}

	if req.OrderStatus == model.OrderStatusCancelled {
		for _, d := range order.Details {
			if err := s.products.AdjustStock(ctx, tx, d.ProductID, d.Quantity); err != nil {
				return nil, fmt.Errorf("failed to restore stock: %w", err)
			}
		}
	}

	if err := s.orders.UpdateStatus(ctx, tx, order.ID, req.OrderStatus); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	committed = true

	if req.OrderStatus == model.OrderStatusCancelled && s.metrics != nil {
		s.metrics.OrdersCancelled.Inc()
	}

	s.logger.Info().
		Int("order_id", order.ID).
		Stringer("from", order.OrderStatus).
		Stringer("to", req.OrderStatus).
		Str("by", caller.Email).
		Msg("order status updated")

	return s.orders.GetByID(ctx, order.ID)
}

// List retrieves one page of orders visible to the caller.
func (s *orderService) List(ctx context.Context, caller Caller, p model.Pagination) ([]model.Order, error) {
	owner, err := s.scope(ctx, caller)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.List(ctx, p.Normalize(), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// TotalPages counts the pages of orders visible to the caller.
func (s *orderService) TotalPages(ctx context.Context, caller Caller, p model.Pagination) (int, error) {
	owner, err := s.scope(ctx, caller)
	if err != nil {
		return 0, err
	}

	count, err := s.orders.Count(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return p.Normalize().TotalPages(count), nil
}

// GetByID retrieves an order. Users cannot see orders of other users.
func (s *orderService) GetByID(ctx context.Context, caller Caller, id int) (*model.Order, error) {
	owner, err := s.scope(ctx, caller)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || (owner != nil && order.UserID != *owner) {
		return nil, model.NotFound("order")
	}
	return order, nil
}

// scope returns nil for admins and the caller's id otherwise.
func (s *orderService) scope(ctx context.Context, caller Caller) (*uuid.UUID, error) {
	if caller.IsAdmin() {
		return nil, nil
	}
	user, err := resolveUser(ctx, s.users, caller.Email)
	if err != nil {
		return nil, err
	}
	return &user.ID, nil
}

func (s *orderService) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}
