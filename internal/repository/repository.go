package repository

import (
	"context"
	"time"

	"orders-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReferenceRepository is the data access contract shared by the lookup
// entities (countries, states, cities, categories).
type ReferenceRepository[T any] interface {
	// List retrieves one page of rows matching the pagination filter.
	List(ctx context.Context, p model.Pagination) ([]T, error)

	// Count returns the number of rows matching the pagination filter.
	Count(ctx context.Context, p model.Pagination) (int, error)

	// All retrieves every row with its children loaded.
	All(ctx context.Context) ([]T, error)

	// Combo retrieves id/name rows for dropdowns. parentID is ignored by
	// entities without a parent.
	Combo(ctx context.Context, parentID int) ([]T, error)

	// GetByID retrieves a single row, or nil when it does not exist.
	GetByID(ctx context.Context, id int) (*T, error)

	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id int) error
}

type (
	CountryRepository  = ReferenceRepository[model.Country]
	StateRepository    = ReferenceRepository[model.State]
	CityRepository     = ReferenceRepository[model.City]
	CategoryRepository = ReferenceRepository[model.Category]
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	List(ctx context.Context, p model.Pagination) ([]model.Product, error)
	Count(ctx context.Context, p model.Pagination) (int, error)

	// GetByID retrieves a product with its images and categories.
	GetByID(ctx context.Context, id int) (*model.Product, error)

	// Create inserts the product, its category links and its image URLs in one transaction.
	Create(ctx context.Context, product *model.Product, categoryIDs []int, images []string) error

	// Update changes the scalar fields and replaces the category links.
	Update(ctx context.Context, product *model.Product, categoryIDs []int) error

	// Delete removes the product and returns the image URLs it referenced.
	Delete(ctx context.Context, id int) ([]string, error)

	AddImages(ctx context.Context, productID int, images []string) error

	// RemoveLastImage deletes the newest image row and returns its URL,
	// or "" when the product has no images.
	RemoveLastImage(ctx context.Context, productID int) (string, error)

	// GetForUpdate locks the product row inside tx. Returns nil when it does not exist.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Product, error)

	// AdjustStock adds delta to the product stock inside tx.
	AdjustStock(ctx context.Context, tx pgx.Tx, id int, delta int) error
}

// TemporalOrderRepository defines data access for cart lines.
type TemporalOrderRepository interface {
	Create(ctx context.Context, line *model.TemporalOrder) error
	GetByID(ctx context.Context, id int) (*model.TemporalOrder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TemporalOrder, error)

	// SumQuantity returns the total quantity in the user's cart.
	SumQuantity(ctx context.Context, userID uuid.UUID) (int, error)

	Update(ctx context.Context, line *model.TemporalOrder) error
	Delete(ctx context.Context, id int) error

	// ListByUserTx reads and locks the cart lines inside tx for checkout.
	ListByUserTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.TemporalOrder, error)

	// DeleteTx removes a cart line inside tx.
	DeleteTx(ctx context.Context, tx pgx.Tx, id int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and sets its ID.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderDetails inserts the order lines within the provided transaction.
	CreateOrderDetails(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error

	// List retrieves one page of orders, newest first. A nil userID lists every order.
	List(ctx context.Context, p model.Pagination, userID *uuid.UUID) ([]model.Order, error)
	Count(ctx context.Context, userID *uuid.UUID) (int, error)

	// GetByID retrieves an order with its user and details.
	GetByID(ctx context.Context, id int) (*model.Order, error)

	// GetForUpdate locks the order row inside tx and loads its details.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) error
}

// UserRepository defines data access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail matches case-insensitively and loads city, state and country.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, stamp uuid.UUID) error
	ConfirmEmail(ctx context.Context, id uuid.UUID) error

	// UpdateLoginState stores the failed-attempt counter and lockout end.
	UpdateLoginState(ctx context.Context, id uuid.UUID, failedCount int, lockoutEnd *time.Time) error

	List(ctx context.Context, p model.Pagination) ([]model.User, error)
	Count(ctx context.Context, p model.Pagination) (int, error)
}
