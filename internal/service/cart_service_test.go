package service

import (
	"context"
	"testing"

	"orders-api/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const buyerEmail = "buyer@example.com"

type cartFixture struct {
	carts    *MockTemporalOrderRepository
	products *MockProductRepository
	users    *MockUserRepository
	svc      CartService
	user     *model.User
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:    new(MockTemporalOrderRepository),
		products: new(MockProductRepository),
		users:    new(MockUserRepository),
		user:     &model.User{ID: uuid.New(), Email: buyerEmail, UserType: model.UserTypeUser},
	}
	f.svc = NewCartService(f.carts, f.products, f.users, zerolog.Nop())
	return f
}

func TestCartService_Add(t *testing.T) {
	ctx := context.Background()
	product := &model.Product{ID: 3, Name: "Mouse", Price: decimal.NewFromInt(20), Stock: 10}

	tests := []struct {
		name             string
		req              model.TemporalOrderRequest
		setup            func(f *cartFixture)
		expectedErr      error
		expectedQuantity int
	}{
		{
			name: "zero quantity defaults to one",
			req:  model.TemporalOrderRequest{ProductID: 3},
			setup: func(f *cartFixture) {
				f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
				f.products.On("GetByID", ctx, 3).Return(product, nil)
				f.carts.On("Create", ctx, mock.MatchedBy(func(l *model.TemporalOrder) bool {
					return l.Quantity == 1 && l.UserID == f.user.ID
				})).Return(nil)
			},
			expectedQuantity: 1,
		},
		{
			name: "explicit quantity",
			req:  model.TemporalOrderRequest{ProductID: 3, Quantity: 4, Remarks: "gift"},
			setup: func(f *cartFixture) {
				f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
				f.products.On("GetByID", ctx, 3).Return(product, nil)
				f.carts.On("Create", ctx, mock.Anything).Return(nil)
			},
			expectedQuantity: 4,
		},
		{
			name: "unknown user",
			req:  model.TemporalOrderRequest{ProductID: 3},
			setup: func(f *cartFixture) {
				f.users.On("GetByEmail", ctx, buyerEmail).Return(nil, nil)
			},
			expectedErr: model.ErrInvalidUser,
		},
		{
			name: "unknown product",
			req:  model.TemporalOrderRequest{ProductID: 9},
			setup: func(f *cartFixture) {
				f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
				f.products.On("GetByID", ctx, 9).Return(nil, nil)
			},
			expectedErr: model.ErrRecordNotFound,
		},
		{
			name: "negative quantity",
			req:  model.TemporalOrderRequest{ProductID: 3, Quantity: -2},
			setup: func(f *cartFixture) {
				f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
			},
			expectedErr: model.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture()
			tt.setup(f)

			line, err := f.svc.Add(ctx, buyerEmail, &tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, line)
				f.carts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedQuantity, line.Quantity)
			assert.True(t, product.Price.Mul(decimal.NewFromInt(int64(tt.expectedQuantity))).Equal(line.Value))
			f.carts.AssertExpectations(t)
		})
	}
}

func TestCartService_ForeignLineIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture()

	foreign := &model.TemporalOrder{ID: 5, UserID: uuid.New(), ProductID: 3, Quantity: 1}
	f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
	f.carts.On("GetByID", ctx, 5).Return(foreign, nil)

	_, err := f.svc.Get(ctx, buyerEmail, 5)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	_, err = f.svc.Update(ctx, buyerEmail, &model.TemporalOrderRequest{ID: 5, Quantity: 2})
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	err = f.svc.Delete(ctx, buyerEmail, 5)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	f.carts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCartService_Update(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture()

	line := &model.TemporalOrder{
		ID:        5,
		UserID:    f.user.ID,
		ProductID: 3,
		Product:   &model.Product{ID: 3, Price: decimal.NewFromInt(3)},
		Quantity:  1,
	}
	f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
	f.carts.On("GetByID", ctx, 5).Return(line, nil)
	f.carts.On("Update", ctx, mock.MatchedBy(func(l *model.TemporalOrder) bool {
		return l.Quantity == 6 && l.Remarks == "blue"
	})).Return(nil)

	updated, err := f.svc.Update(ctx, buyerEmail, &model.TemporalOrderRequest{ID: 5, Quantity: 6, Remarks: "blue"})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(18).Equal(updated.Value))

	_, err = f.svc.Update(ctx, buyerEmail, &model.TemporalOrderRequest{ID: 5, Quantity: 0})
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
}

func TestCartService_MineAndCount(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture()

	lines := []model.TemporalOrder{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 3}}
	f.users.On("GetByEmail", ctx, buyerEmail).Return(f.user, nil)
	f.carts.On("ListByUser", ctx, f.user.ID).Return(lines, nil)
	f.carts.On("SumQuantity", ctx, f.user.ID).Return(5, nil)

	mine, err := f.svc.Mine(ctx, buyerEmail)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	count, err := f.svc.Count(ctx, buyerEmail)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
