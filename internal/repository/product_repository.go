package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"orders-api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productSelect = `SELECT p.id, p.name, p.description, p.price, p.stock FROM products p`

// productFilter matches the name filter and, when the second argument is
// true, requires a category named exactly the third (ignoring case).
const productFilter = `
	WHERE p.name ILIKE $1
	AND (NOT $2::boolean OR EXISTS (
		SELECT 1 FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = p.id AND LOWER(c.name) = LOWER($3)
	))
`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock)
}

// List retrieves one page of products with images and categories.
func (r *productRepository) List(ctx context.Context, p model.Pagination) ([]model.Product, error) {
	query := productSelect + productFilter + `
		ORDER BY p.name
		LIMIT $4 OFFSET $5
	`

	rows, err := r.pool.Query(ctx, query,
		likePattern(p.Filter), hasFilter(p.CategoryFilter), strings.TrimSpace(p.CategoryFilter),
		p.Limit(), p.Offset())
	if err != nil {
		r.logger.Error().Err(err).
			Int("page", p.Page).
			Str("filter", p.Filter).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var prod model.Product
		if err := scanProduct(rows, &prod); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.loadRelations(ctx, r.pool, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Count returns the number of products matching the filters.
func (r *productRepository) Count(ctx context.Context, p model.Pagination) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+productFilter,
		likePattern(p.Filter), hasFilter(p.CategoryFilter), strings.TrimSpace(p.CategoryFilter)).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// GetByID retrieves a product with its images and categories.
func (r *productRepository) GetByID(ctx context.Context, id int) (*model.Product, error) {
	products, err := r.getByIDs(ctx, r.pool, []int{id})
	if err != nil {
		r.logger.Error().Err(err).Int("product_id", id).Msg("failed to query product")
		return nil, err
	}
	if len(products) == 0 {
		r.logger.Debug().Int("product_id", id).Msg("product not found")
		return nil, nil
	}
	return &products[0], nil
}

func (r *productRepository) getByIDs(ctx context.Context, db DBTX, ids []int) ([]model.Product, error) {
	rows, err := db.Query(ctx, productSelect+` WHERE p.id = ANY($1) ORDER BY p.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var prod model.Product
		if err := scanProduct(rows, &prod); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.loadRelations(ctx, db, products); err != nil {
		return nil, err
	}
	return products, nil
}

// loadRelations fills images and categories of the given products with two queries.
func (r *productRepository) loadRelations(ctx context.Context, db DBTX, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int, len(products))
	index := make(map[int]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
		products[i].ProductImages = []model.ProductImage{}
		products[i].ProductCategories = []model.Category{}
	}

	imageRows, err := db.Query(ctx,
		`SELECT id, product_id, image FROM product_images WHERE product_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query product images")
		return fmt.Errorf("failed to query product images: %w", err)
	}
	for imageRows.Next() {
		var img model.ProductImage
		if err := imageRows.Scan(&img.ID, &img.ProductID, &img.Image); err != nil {
			imageRows.Close()
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		p := &products[index[img.ProductID]]
		p.ProductImages = append(p.ProductImages, img)
	}
	imageRows.Close()
	if err := imageRows.Err(); err != nil {
		return fmt.Errorf("error iterating product images: %w", err)
	}

	categoryRows, err := db.Query(ctx, `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY c.name`, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query product categories")
		return fmt.Errorf("failed to query product categories: %w", err)
	}
	for categoryRows.Next() {
		var productID int
		var c model.Category
		if err := categoryRows.Scan(&productID, &c.ID, &c.Name); err != nil {
			categoryRows.Close()
			return fmt.Errorf("failed to scan product category: %w", err)
		}
		p := &products[index[productID]]
		p.ProductCategories = append(p.ProductCategories, c)
	}
	categoryRows.Close()
	if err := categoryRows.Err(); err != nil {
		return fmt.Errorf("error iterating product categories: %w", err)
	}

	for i := range products {
		products[i].Fill()
	}
	return nil
}

// Create inserts the product with its category links and images.
func (r *productRepository) Create(ctx context.Context, product *model.Product, categoryIDs []int, images []string) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO products (name, description, price, stock)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			product.Name, product.Description, product.Price, product.Stock).Scan(&product.ID)
		if err != nil {
			return translateWriteError(fmt.Errorf("failed to create product: %w", err), writeInsert)
		}

		if err := insertProductCategories(ctx, tx, product.ID, categoryIDs); err != nil {
			return err
		}
		return insertProductImages(ctx, tx, product.ID, images)
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("name", product.Name).Msg("failed to create product")
		return err
	}

	r.logger.Debug().Int("product_id", product.ID).Msg("product created successfully")
	return nil
}

// Update changes the scalar fields and replaces the category links.
func (r *productRepository) Update(ctx context.Context, product *model.Product, categoryIDs []int) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE products SET name = $2, description = $3, price = $4, stock = $5
			WHERE id = $1`,
			product.ID, product.Name, product.Description, product.Price, product.Stock)
		if err != nil {
			return translateWriteError(fmt.Errorf("failed to update product: %w", err), writeUpdate)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrRecordNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("failed to clear product categories: %w", err)
		}
		return insertProductCategories(ctx, tx, product.ID, categoryIDs)
	})
	if err != nil {
		r.logger.Warn().Err(err).Int("product_id", product.ID).Msg("failed to update product")
		return err
	}
	return nil
}

// Delete removes the product. Category links and image rows cascade.
func (r *productRepository) Delete(ctx context.Context, id int) ([]string, error) {
	var images []string
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT image FROM product_images WHERE product_id = $1 ORDER BY id`, id)
		if err != nil {
			return fmt.Errorf("failed to query product images: %w", err)
		}
		images, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to scan product images: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return translateWriteError(fmt.Errorf("failed to delete product: %w", err), writeDelete)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.Warn().Err(err).Int("product_id", id).Msg("failed to delete product")
		return nil, err
	}
	return images, nil
}

// AddImages appends image URLs to the product.
func (r *productRepository) AddImages(ctx context.Context, productID int, images []string) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		return insertProductImages(ctx, tx, productID, images)
	})
	if err != nil {
		r.logger.Warn().Err(err).Int("product_id", productID).Msg("failed to add product images")
		return err
	}
	return nil
}

// RemoveLastImage deletes the newest image of the product.
func (r *productRepository) RemoveLastImage(ctx context.Context, productID int) (string, error) {
	var image string
	err := r.pool.QueryRow(ctx, `
		DELETE FROM product_images
		WHERE id = (SELECT MAX(id) FROM product_images WHERE product_id = $1)
		RETURNING image`, productID).Scan(&image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		r.logger.Error().Err(err).Int("product_id", productID).Msg("failed to remove product image")
		return "", fmt.Errorf("failed to remove product image: %w", err)
	}
	return image, nil
}

// GetForUpdate locks the product row for the rest of tx.
func (r *productRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int) (*model.Product, error) {
	var p model.Product
	err := scanProduct(tx.QueryRow(ctx, productSelect+` WHERE p.id = $1 FOR UPDATE`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int("product_id", id).Msg("failed to lock product")
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &p, nil
}

// AdjustStock adds delta (negative to decrement) to the product stock.
func (r *productRepository) AdjustStock(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	tag, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, id, delta)
	if err != nil {
		r.logger.Error().Err(err).Int("product_id", id).Int("delta", delta).Msg("failed to adjust stock")
		return translateWriteError(fmt.Errorf("failed to adjust stock: %w", err), writeUpdate)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound("product")
	}
	return nil
}

func insertProductCategories(ctx context.Context, tx pgx.Tx, productID int, categoryIDs []int) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, categoryID := range categoryIDs {
		batch.Queue(`
			INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)
			ON CONFLICT (product_id, category_id) DO NOTHING`, productID, categoryID)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range categoryIDs {
		if _, err := results.Exec(); err != nil {
			return translateWriteError(fmt.Errorf("failed to link product category: %w", err), writeInsert)
		}
	}
	return nil
}

func insertProductImages(ctx context.Context, tx pgx.Tx, productID int, images []string) error {
	if len(images) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, image := range images {
		batch.Queue(`INSERT INTO product_images (product_id, image) VALUES ($1, $2)`, productID, image)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range images {
		if _, err := results.Exec(); err != nil {
			return translateWriteError(fmt.Errorf("failed to add product image: %w", err), writeInsert)
		}
	}
	return nil
}
