package service

import (
	"context"

	"orders-api/internal/model"
)

// Caller identifies the authenticated user on whose behalf a service call runs.
type Caller struct {
	Email string
	Role  model.UserType
}

// IsAdmin reports whether the caller holds the Admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == model.UserTypeAdmin
}

// ReferenceService defines the lookup-data operations shared by countries,
// states, cities and categories.
type ReferenceService[T any] interface {
	List(ctx context.Context, p model.Pagination) ([]T, error)
	TotalPages(ctx context.Context, p model.Pagination) (int, error)

	// All retrieves every row with its children.
	All(ctx context.Context) ([]T, error)

	// Combo retrieves the dropdown list, served from cache when possible.
	Combo(ctx context.Context, parentID int) ([]T, error)

	GetByID(ctx context.Context, id int) (*T, error)
	Create(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, id int) error
}

type (
	CountryService  = ReferenceService[model.Country]
	StateService    = ReferenceService[model.State]
	CityService     = ReferenceService[model.City]
	CategoryService = ReferenceService[model.Category]
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	List(ctx context.Context, p model.Pagination) ([]model.Product, error)
	TotalPages(ctx context.Context, p model.Pagination) (int, error)
	GetByID(ctx context.Context, id int) (*model.Product, error)

	// Create uploads the request images and stores the product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// Update changes the scalar fields and the categories. Images are kept.
	Update(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// AddImages uploads images and returns every image of the product.
	AddImages(ctx context.Context, req *model.ImageRequest) ([]model.ProductImage, error)

	// RemoveLastImage drops the newest image and returns the remaining ones.
	RemoveLastImage(ctx context.Context, req *model.ImageRequest) ([]model.ProductImage, error)

	Delete(ctx context.Context, id int) error
}

// CartService defines operations on the signed-in user's cart.
type CartService interface {
	Add(ctx context.Context, email string, req *model.TemporalOrderRequest) (*model.TemporalOrder, error)
	Update(ctx context.Context, email string, req *model.TemporalOrderRequest) (*model.TemporalOrder, error)
	Get(ctx context.Context, email string, id int) (*model.TemporalOrder, error)
	Mine(ctx context.Context, email string) ([]model.TemporalOrder, error)

	// Count returns the total quantity in the cart.
	Count(ctx context.Context, email string) (int, error)

	Delete(ctx context.Context, email string, id int) error
}

// OrderService defines operations for order management.
type OrderService interface {
	// Checkout turns the caller's cart into a new order.
	Checkout(ctx context.Context, email string, req *model.CheckoutRequest) error

	// UpdateStatus moves an order to a new status. Cancelling restores stock.
	UpdateStatus(ctx context.Context, caller Caller, req *model.OrderStatusRequest) (*model.Order, error)

	// List retrieves every order for admins and the caller's own otherwise.
	List(ctx context.Context, caller Caller, p model.Pagination) ([]model.Order, error)
	TotalPages(ctx context.Context, caller Caller, p model.Pagination) (int, error)

	GetByID(ctx context.Context, caller Caller, id int) (*model.Order, error)
}

// AccountService defines the account lifecycle.
type AccountService interface {
	Register(ctx context.Context, req *model.UserRequest) (*model.User, error)
	ConfirmEmail(ctx context.Context, userID, token string) error
	ResendConfirmation(ctx context.Context, email string) error
	Login(ctx context.Context, req *model.LoginRequest) (*model.Token, error)
	RecoverPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, email string, req *model.ChangePasswordRequest) error

	// Current returns the caller with city, state and country.
	Current(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile stores the new profile and returns a refreshed token.
	UpdateProfile(ctx context.Context, email string, req *model.UserUpdateRequest) (*model.Token, error)

	List(ctx context.Context, p model.Pagination) ([]model.User, error)
	TotalPages(ctx context.Context, p model.Pagination) (int, error)
}
