package handler

import (
	"context"

	"orders-api/internal/model"
	"orders-api/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockReferenceService is a mock implementation of ReferenceService.
type MockReferenceService[T any] struct {
	mock.Mock
}

func (m *MockReferenceService[T]) List(ctx context.Context, p model.Pagination) ([]T, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockReferenceService[T]) TotalPages(ctx context.Context, p model.Pagination) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockReferenceService[T]) All(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockReferenceService[T]) Combo(ctx context.Context, parentID int) ([]T, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockReferenceService[T]) GetByID(ctx context.Context, id int) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockReferenceService[T]) Create(ctx context.Context, entity *T) (*T, error) {
	args := m.Called(ctx, entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockReferenceService[T]) Update(ctx context.Context, entity *T) (*T, error) {
	args := m.Called(ctx, entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockReferenceService[T]) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, p model.Pagination) ([]model.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) TotalPages(ctx context.Context, p model.Pagination) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) AddImages(ctx context.Context, req *model.ImageRequest) ([]model.ProductImage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductImage), args.Error(1)
}

func (m *MockProductService) RemoveLastImage(ctx context.Context, req *model.ImageRequest) ([]model.ProductImage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductImage), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, email string, req *model.TemporalOrderRequest) (*model.TemporalOrder, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemporalOrder), args.Error(1)
}

func (m *MockCartService) Update(ctx context.Context, email string, req *model.TemporalOrderRequest) (*model.TemporalOrder, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemporalOrder), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, email string, id int) (*model.TemporalOrder, error) {
	args := m.Called(ctx, email, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemporalOrder), args.Error(1)
}

func (m *MockCartService) Mine(ctx context.Context, email string) ([]model.TemporalOrder, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TemporalOrder), args.Error(1)
}

func (m *MockCartService) Count(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *MockCartService) Delete(ctx context.Context, email string, id int) error {
	return m.Called(ctx, email, id).Error(0)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, email string, req *model.CheckoutRequest) error {
	return m.Called(ctx, email, req).Error(0)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, caller service.Caller, req *model.OrderStatusRequest) (*model.Order, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, caller service.Caller, p model.Pagination) ([]model.Order, error) {
	args := m.Called(ctx, caller, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) TotalPages(ctx context.Context, caller service.Caller, p model.Pagination) (int, error) {
	args := m.Called(ctx, caller, p)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, caller service.Caller, id int) (*model.Order, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockAccountService is a mock implementation of AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, req *model.UserRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccountService) ConfirmEmail(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *MockAccountService) ResendConfirmation(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAccountService) Login(ctx context.Context, req *model.LoginRequest) (*model.Token, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Token), args.Error(1)
}

func (m *MockAccountService) RecoverPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAccountService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, email string, req *model.ChangePasswordRequest) error {
	return m.Called(ctx, email, req).Error(0)
}

func (m *MockAccountService) Current(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, email string, req *model.UserUpdateRequest) (*model.Token, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Token), args.Error(1)
}

func (m *MockAccountService) List(ctx context.Context, p model.Pagination) ([]model.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockAccountService) TotalPages(ctx context.Context, p model.Pagination) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}
