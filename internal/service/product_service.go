package service

import (
	"context"
	"errors"
	"fmt"

	"orders-api/internal/model"
	"orders-api/internal/repository"
	"orders-api/internal/storage"

	"github.com/rs/zerolog"
)

var errProductExists = model.NewDomainError(model.ErrCodeAlreadyExists, "a product with the same name already exists")

// productService implements ProductService.
type productService struct {
	repo   repository.ProductRepository
	images imageUploader
	logger zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, files storage.FileStorage, logger zerolog.Logger) ProductService {
	logger = logger.With().Str("service", "product").Logger()
	return &productService{
		repo:   repo,
		images: imageUploader{files: files, container: storage.ContainerProducts, logger: logger},
		logger: logger,
	}
}

// List retrieves one page of products with images and categories.
func (s *productService) List(ctx context.Context, p model.Pagination) ([]model.Product, error) {
	products, err := s.repo.List(ctx, p.Normalize())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// TotalPages counts the pages of the filtered product list.
func (s *productService) TotalPages(ctx context.Context, p model.Pagination) (int, error) {
	p = p.Normalize()
	count, err := s.repo.Count(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return p.TotalPages(count), nil
}

// GetByID retrieves a single product.
func (s *productService) GetByID(ctx context.Context, id int) (*model.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.NotFound("product")
	}
	return product, nil
}

// Create uploads the images first so the row only ever references stored
// blobs. Blobs are removed again when the insert fails.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	urls, uploaded, err := s.images.upload(ctx, req.ProductImages)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.repo.Create(ctx, product, uniqueIDs(req.ProductCategoryIDs), urls); err != nil {
		s.images.discard(ctx, uploaded)
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, errProductExists
		}
		return nil, err
	}

	s.logger.Info().
		Int("product_id", product.ID).
		Int("image_count", len(urls)).
		Msg("product created successfully")

	return s.GetByID(ctx, product.ID)
}

// Update changes the scalar fields and replaces the categories.
func (s *productService) Update(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.repo.Update(ctx, product, uniqueIDs(req.ProductCategoryIDs)); err != nil {
		switch {
		case errors.Is(err, model.ErrRecordNotFound):
			return nil, model.NotFound("product")
		case errors.Is(err, model.ErrAlreadyExists):
			return nil, errProductExists
		}
		return nil, err
	}

	return s.GetByID(ctx, product.ID)
}

// AddImages uploads the new images and returns the full image list.
func (s *productService) AddImages(ctx context.Context, req *model.ImageRequest) ([]model.ProductImage, error) {
	if _, err := s.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	urls, uploaded, err := s.images.upload(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddImages(ctx, req.ProductID, urls); err != nil {
		s.images.discard(ctx, uploaded)
		return nil, err
	}

	product, err := s.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	return product.ProductImages, nil
}

// RemoveLastImage deletes the newest image row and its blob.
func (s *productService) RemoveLastImage(ctx context.Context, req *model.ImageRequest) ([]model.ProductImage, error) {
	if _, err := s.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	url, err := s.repo.RemoveLastImage(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if url != "" {
		s.images.discard(ctx, []string{url})
	}

	product, err := s.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	return product.ProductImages, nil
}

// Delete removes the product and, once the rows are gone, its blobs.
func (s *productService) Delete(ctx context.Context, id int) error {
	urls, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return model.NotFound("product")
		}
		return err
	}

	s.images.discard(ctx, urls)
	s.logger.Info().Int("product_id", id).Int("image_count", len(urls)).Msg("product deleted")
	return nil
}

func validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.ValidationFailed("product request is required")
	}
	if req.Price.IsNegative() {
		return model.ValidationFailed("price must be zero or greater")
	}
	return nil
}

// uniqueIDs drops duplicates while keeping the first-seen order.
func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
