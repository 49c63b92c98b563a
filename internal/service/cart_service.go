package service

import (
	"context"
	"fmt"

	"orders-api/internal/model"
	"orders-api/internal/repository"

	"github.com/rs/zerolog"
)

const cartLineEntity = "cart line"

// cartService implements CartService.
type cartService struct {
	carts    repository.TemporalOrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	logger   zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.TemporalOrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		carts:    carts,
		products: products,
		users:    users,
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

// Add puts a product in the cart. A zero quantity means one unit.
func (s *cartService) Add(ctx context.Context, email string, req *model.TemporalOrderRequest) (*model.TemporalOrder, error) {
	user, err := resolveUser(ctx, s.users, email)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.NotFound("product")
	}

	line := &model.TemporalOrder{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		Remarks:   req.Remarks,
	}
	if err := s.carts.Create(ctx, line); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", user.ID.String()).
		Int("product_id", product.ID).
		Int("quantity", quantity).
		Msg("product added to cart")

	line.Product = product
	line.ComputeValue()
	return line, nil
}

// Update changes quantity and remarks of one of the caller's lines.
func (s *cartService) Update(ctx context.Context, email string, req *model.TemporalOrderRequest) (*model.TemporalOrder, error) {
	line, err := s.ownLine(ctx, email, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	line.Quantity = req.Quantity
	line.Remarks = req.Remarks
	if err := s.carts.Update(ctx, line); err != nil {
		return nil, err
	}

	line.ComputeValue()
	return line, nil
}

// Get retrieves one of the caller's lines with its product.
func (s *cartService) Get(ctx context.Context, email string, id int) (*model.TemporalOrder, error) {
	return s.ownLine(ctx, email, id)
}

// Mine retrieves the caller's whole cart.
func (s *cartService) Mine(ctx context.Context, email string) ([]model.TemporalOrder, error) {
	user, err := resolveUser(ctx, s.users, email)
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return lines, nil
}

// Count returns the total quantity in the caller's cart.
func (s *cartService) Count(ctx context.Context, email string) (int, error) {
	user, err := resolveUser(ctx, s.users, email)
	if err != nil {
		return 0, err
	}
	return s.carts.SumQuantity(ctx, user.ID)
}

// Delete removes one of the caller's lines.
func (s *cartService) Delete(ctx context.Context, email string, id int) error {
	line, err := s.ownLine(ctx, email, id)
	if err != nil {
		return err
	}
	return s.carts.Delete(ctx, line.ID)
}

// ownLine loads a line and hides lines of other users behind a not found.
func (s *cartService) ownLine(ctx context.Context, email string, id int) (*model.TemporalOrder, error) {
	user, err := resolveUser(ctx, s.users, email)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}
	if line == nil || line.UserID != user.ID {
		return nil, model.NotFound(cartLineEntity)
	}
	return line, nil
}

// resolveUser loads the account behind an authenticated email.
func resolveUser(ctx context.Context, users repository.UserRepository, email string) (*model.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidUser
	}
	return user, nil
}
