package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplace-catalog-service/internal/domain"
)

// CatalogCacheKey holds the JSON encoded catalog snapshot.
const CatalogCacheKey = "marketplace:catalog:snapshot"

// CachedStore serves ListCatalog from Redis and falls through to the wrapped Store on a miss.
// Every write invalidates the snapshot. Redis failures are logged and never fail a request.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps inner with a Redis snapshot cache.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	return &CachedStore{Store: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) ListCatalog(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.client.Get(ctx, CatalogCacheKey).Bytes()
	switch {
	case err == nil:
		var products []domain.Product
		jsonErr := json.Unmarshal(raw, &products)
		if jsonErr == nil {
			return products, nil
		}
		s.logger.Warn("Discarding undecodable catalog snapshot", zap.Error(jsonErr))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("Catalog cache read failed", zap.Error(err))
	}

	products, err := s.Store.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, products)
	return products, nil
}

func (s *CachedStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	created, err := s.Store.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return created, nil
}

func (s *CachedStore) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.Store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

func (s *CachedStore) PlaceOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	placed, err := s.Store.PlaceOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return placed, nil
}

// Invalidate drops the cached snapshot.
func (s *CachedStore) Invalidate(ctx context.Context) {
	if err := s.client.Del(ctx, CatalogCacheKey).Err(); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}

// Ping checks Redis and the wrapped store when it supports it.
func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store: redis ping failed: %w", err)
	}
	if p, ok := s.Store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *CachedStore) Close() error {
	return errors.Join(s.Store.Close(), s.client.Close())
}

func (s *CachedStore) store(ctx context.Context, products []domain.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		s.logger.Warn("Failed to encode catalog snapshot", zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, CatalogCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.Error(err))
	}
}
