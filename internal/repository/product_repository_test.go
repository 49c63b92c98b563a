package repository

import (
	"context"
	"testing"

	"orders-api/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCategories(t *testing.T, pool *pgxpool.Pool, names ...string) []model.Category {
	t.Helper()
	repo := NewCategoryRepository(pool, zerolog.Nop())
	categories := make([]model.Category, 0, len(names))
	for _, name := range names {
		c := model.Category{Name: name}
		require.NoError(t, repo.Create(context.Background(), &c))
		categories = append(categories, c)
	}
	return categories
}

func TestProductRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())
	cats := seedCategories(t, pool, "Tecnología", "Hogar")

	laptop := seedProduct(t, pool, "Laptop", "1200.50", 3, []int{cats[0].ID, cats[1].ID},
		"https://cdn.example.com/products/a.png", "https://cdn.example.com/products/b.png")

	got, err := repo.GetByID(ctx, laptop.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Laptop", got.Name)
	assert.True(t, decimal.RequireFromString("1200.50").Equal(got.Price))
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 2, got.ProductCategoriesNumber)
	assert.Equal(t, 2, got.ProductImagesNumber)
	assert.Equal(t, "https://cdn.example.com/products/a.png", got.MainImage)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	t.Run("duplicate name", func(t *testing.T) {
		dup := &model.Product{Name: "Laptop", Description: "x", Price: decimal.NewFromInt(1), Stock: 1}
		err := repo.Create(ctx, dup, []int{cats[0].ID}, nil)
		assert.ErrorIs(t, err, model.ErrAlreadyExists)
	})

	t.Run("unknown category rolls back", func(t *testing.T) {
		p := &model.Product{Name: "Mouse", Description: "x", Price: decimal.NewFromInt(20), Stock: 10}
		err := repo.Create(ctx, p, []int{9999}, nil)
		assert.ErrorIs(t, err, model.ErrInvalidReference)

		count, err := repo.Count(ctx, model.Pagination{Filter: "mouse"})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestProductRepository_ListFilters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())
	cats := seedCategories(t, pool, "Tecnología", "Mascotas", "Hogar", "Hogar y Jardín")

	seedProduct(t, pool, "Laptop", "1200", 3, []int{cats[0].ID})
	seedProduct(t, pool, "Mouse", "20", 10, []int{cats[0].ID})
	seedProduct(t, pool, "Dog Bed", "45", 2, []int{cats[1].ID})
	seedProduct(t, pool, "Lamp", "30", 4, []int{cats[2].ID})
	seedProduct(t, pool, "Rake", "15", 6, []int{cats[3].ID})

	tests := []struct {
		name     string
		p        model.Pagination
		expected []string
		count    int
	}{
		{
			name:     "first page",
			p:        model.Pagination{Page: 1, RecordsNumber: 2},
			expected: []string{"Dog Bed", "Lamp"},
			count:    5,
		},
		{
			name:     "second page",
			p:        model.Pagination{Page: 2, RecordsNumber: 2},
			expected: []string{"Laptop", "Mouse"},
			count:    5,
		},
		{
			name:     "name filter",
			p:        model.Pagination{Page: 1, RecordsNumber: 10, Filter: "OUS"},
			expected: []string{"Mouse"},
			count:    1,
		},
		{
			name:     "category filter ignores case",
			p:        model.Pagination{Page: 1, RecordsNumber: 10, CategoryFilter: "tecnología"},
			expected: []string{"Laptop", "Mouse"},
			count:    2,
		},
		{
			name:     "category filter is exact",
			p:        model.Pagination{Page: 1, RecordsNumber: 10, CategoryFilter: "Hogar"},
			expected: []string{"Lamp"},
			count:    1,
		},
		{
			name:     "partial category name",
			p:        model.Pagination{Page: 1, RecordsNumber: 10, CategoryFilter: "tecno"},
			expected: []string{},
			count:    0,
		},
		{
			name:     "both filters",
			p:        model.Pagination{Page: 1, RecordsNumber: 10, Filter: "bed", CategoryFilter: "Tecnología"},
			expected: []string{},
			count:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.List(ctx, tt.p)
			require.NoError(t, err)

			names := make([]string, 0, len(products))
			for _, p := range products {
				names = append(names, p.Name)
				assert.Len(t, p.ProductCategories, 1)
			}
			assert.Equal(t, tt.expected, names)

			count, err := repo.Count(ctx, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestProductRepository_UpdateImagesDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())
	cats := seedCategories(t, pool, "Tecnología", "Hogar")
	p := seedProduct(t, pool, "Lamp", "30", 5, []int{cats[0].ID}, "https://cdn/a.png")

	p.Price = decimal.RequireFromString("35.90")
	require.NoError(t, repo.Update(ctx, p, []int{cats[1].ID}))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.90").Equal(got.Price))
	require.Len(t, got.ProductCategories, 1)
	assert.Equal(t, "Hogar", got.ProductCategories[0].Name)

	assert.ErrorIs(t, repo.Update(ctx, &model.Product{ID: 9999, Name: "x"}, nil), model.ErrRecordNotFound)

	require.NoError(t, repo.AddImages(ctx, p.ID, []string{"https://cdn/b.png", "https://cdn/c.png"}))

	removed, err := repo.RemoveLastImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/c.png", removed)

	images, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png"}, images)

	removed, err = repo.RemoveLastImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = repo.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
}

func TestProductRepository_StockInTx(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())
	cats := seedCategories(t, pool, "Tecnología")
	p := seedProduct(t, pool, "Keyboard", "80", 4, []int{cats[0].ID})

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	locked, err := repo.GetForUpdate(ctx, tx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Equal(t, 4, locked.Stock)

	require.NoError(t, repo.AdjustStock(ctx, tx, p.ID, -3))

	missing, err := repo.GetForUpdate(ctx, tx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.AdjustStock(ctx, tx, 9999, 1), model.NotFound("product"))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	tx, err = pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = repo.AdjustStock(ctx, tx, p.ID, -2)
	de, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeValidationFailed, de.Code)
}
