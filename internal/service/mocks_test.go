package service

import (
	"context"
	"time"

	"orders-api/internal/mail"
	"orders-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockReferenceRepository is a mock implementation of ReferenceRepository.
type MockReferenceRepository[T any] struct {
	mock.Mock
}

func (m *MockReferenceRepository[T]) List(ctx context.Context, p model.Pagination) ([]T, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockReferenceRepository[T]) Count(ctx context.Context, p model.Pagination) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockReferenceRepository[T]) All(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockReferenceRepository[T]) Combo(ctx context.Context, parentID int) ([]T, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockReferenceRepository[T]) GetByID(ctx context.Context, id int) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockReferenceRepository[T]) Create(ctx context.Context, entity *T) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockReferenceRepository[T]) Update(ctx context.Context, entity *T) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockReferenceRepository[T]) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// MockComboCache is a mock implementation of cache.ComboCache.
type MockComboCache struct {
	mock.Mock
}

func (m *MockComboCache) Get(ctx context.Context, entity string, parentID int, dest any) bool {
	return m.Called(ctx, entity, parentID, dest).Bool(0)
}

func (m *MockComboCache) Set(ctx context.Context, entity string, parentID int, value any) error {
	return m.Called(ctx, entity, parentID, value).Error(0)
}

func (m *MockComboCache) Invalidate(ctx context.Context, entity string) error {
	return m.Called(ctx, entity).Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, p model.Pagination) ([]model.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product, categoryIDs []int, images []string) error {
	return m.Called(ctx, product, categoryIDs, images).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product, categoryIDs []int) error {
	return m.Called(ctx, product, categoryIDs).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) AddImages(ctx context.Context, productID int, images []string) error {
	return m.Called(ctx, productID, images).Error(0)
}

func (m *MockProductRepository) RemoveLastImage(ctx context.Context, productID int) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

func (m *MockProductRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Product, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	return m.Called(ctx, tx, id, delta).Error(0)
}

// MockTemporalOrderRepository is a mock implementation of TemporalOrderRepository.
type MockTemporalOrderRepository struct {
	mock.Mock
}

func (m *MockTemporalOrderRepository) Create(ctx context.Context, line *model.TemporalOrder) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockTemporalOrderRepository) GetByID(ctx context.Context, id int) (*model.TemporalOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemporalOrder), args.Error(1)
}

func (m *MockTemporalOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TemporalOrder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TemporalOrder), args.Error(1)
}

func (m *MockTemporalOrderRepository) SumQuantity(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockTemporalOrderRepository) Update(ctx context.Context, line *model.TemporalOrder) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockTemporalOrderRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTemporalOrderRepository) ListByUserTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.TemporalOrder, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TemporalOrder), args.Error(1)
}

func (m *MockTemporalOrderRepository) DeleteTx(ctx context.Context, tx pgx.Tx, id int) error {
	return m.Called(ctx, tx, id).Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) CreateOrderDetails(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error {
	return m.Called(ctx, tx, details).Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, p model.Pagination, userID *uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, p, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, userID *uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) error {
	return m.Called(ctx, tx, id, status).Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, stamp uuid.UUID) error {
	return m.Called(ctx, id, passwordHash, stamp).Error(0)
}

func (m *MockUserRepository) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) UpdateLoginState(ctx context.Context, id uuid.UUID, failedCount int, lockoutEnd *time.Time) error {
	return m.Called(ctx, id, failedCount, lockoutEnd).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, p model.Pagination) ([]model.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

// MockFileStorage is a mock implementation of storage.FileStorage.
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) SaveFile(ctx context.Context, content []byte, extension, container string) (string, error) {
	args := m.Called(ctx, content, extension, container)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) RemoveFile(ctx context.Context, url, container string) error {
	return m.Called(ctx, url, container).Error(0)
}

// MockSender is a mock implementation of mail.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
