package service

import (
	"context"
	"errors"
	"fmt"

	"orders-api/internal/cache"
	"orders-api/internal/model"
	"orders-api/internal/repository"

	"github.com/rs/zerolog"
)

// Entity names used in error messages and cache keys.
const (
	EntityCountry  = "country"
	EntityState    = "state"
	EntityCity     = "city"
	EntityCategory = "category"
)

// referenceService implements ReferenceService over a ReferenceRepository.
type referenceService[T any] struct {
	entity string
	repo   repository.ReferenceRepository[T]
	cache  cache.ComboCache
	logger zerolog.Logger
}

// NewReferenceService creates a lookup-data service for the named entity.
func NewReferenceService[T any](
	entity string,
	repo repository.ReferenceRepository[T],
	combos cache.ComboCache,
	logger zerolog.Logger,
) ReferenceService[T] {
	if combos == nil {
		combos = cache.NewNoop()
	}
	return &referenceService[T]{
		entity: entity,
		repo:   repo,
		cache:  combos,
		logger: logger.With().Str("service", entity).Logger(),
	}
}

func (s *referenceService[T]) List(ctx context.Context, p model.Pagination) ([]T, error) {
	items, err := s.repo.List(ctx, p.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.entity, err)
	}
	return items, nil
}

func (s *referenceService[T]) TotalPages(ctx context.Context, p model.Pagination) (int, error) {
	p = p.Normalize()
	count, err := s.repo.Count(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.entity, err)
	}
	return p.TotalPages(count), nil
}

func (s *referenceService[T]) All(ctx context.Context) ([]T, error) {
	items, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.entity, err)
	}
	return items, nil
}

// Combo serves the dropdown list from cache, falling back to the database.
// Cache write failures are logged and otherwise ignored.
func (s *referenceService[T]) Combo(ctx context.Context, parentID int) ([]T, error) {
	var items []T
	if s.cache.Get(ctx, s.entity, parentID, &items) {
		return items, nil
	}

	items, err := s.repo.Combo(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s combo: %w", s.entity, err)
	}

	if err := s.cache.Set(ctx, s.entity, parentID, items); err != nil {
		s.logger.Warn().Err(err).Int("parent_id", parentID).Msg("failed to cache combo")
	}
	return items, nil
}

func (s *referenceService[T]) GetByID(ctx context.Context, id int) (*T, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.entity, err)
	}
	if item == nil {
		return nil, model.NotFound(s.entity)
	}
	return item, nil
}

func (s *referenceService[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info().Msgf("%s created", s.entity)
	return entity, nil
}

func (s *referenceService[T]) Update(ctx context.Context, entity *T) (*T, error) {
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, model.NotFound(s.entity)
		}
		return nil, err
	}
	s.invalidate(ctx)
	return entity, nil
}

func (s *referenceService[T]) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info().Int("id", id).Msgf("%s deleted", s.entity)
	return nil
}

func (s *referenceService[T]) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, s.entity); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate combo cache")
	}
}
