package service

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"

	"github.com/droplabs/drop-service/internal/entities"
)

type ProductReader interface {
	GetByID(ctx context.Context, id int64) (entities.Product, error)
	ListActive(ctx context.Context) ([]entities.Product, error)
	ListByCategory(ctx context.Context, category string) ([]entities.Product, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// catalogService is the read-only product surface. Listings are cached
// briefly; by-id reads go straight to the store because the order flow
// depends on current stock.
type catalogService struct {
	logger   *slog.Logger
	products ProductReader
	cache    Cache
}

func NewCatalogService(logger *slog.Logger, products ProductReader, cache Cache) *catalogService {
	return &catalogService{
		logger:   logger.With(slog.String("service", "catalog")),
		products: products,
		cache:    cache,
	}
}

func (s *catalogService) List(ctx context.Context) ([]entities.Product, error) {
	return s.cachedList(ctx, "products:all", func(ctx context.Context) ([]entities.Product, error) {
		return s.products.ListActive(ctx)
	})
}

func (s *catalogService) GetByID(ctx context.Context, id int64) (entities.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *catalogService) GetByCategory(ctx context.Context, category string) ([]entities.Product, error) {
	key := "products:category:" + category
	return s.cachedList(ctx, key, func(ctx context.Context) ([]entities.Product, error) {
		return s.products.ListByCategory(ctx, category)
	})
}

func (s *catalogService) cachedList(ctx context.Context, key string, load func(ctx context.Context) ([]entities.Product, error)) ([]entities.Product, error) {
	if data, ok := s.cache.Get(key); ok {
		products, err := decodeProducts(data)
		if err == nil {
			return products, nil
		}
		s.logger.Error("failed to decode cached products", slog.String("key", key), slog.Any("error", err))
	}

	products, err := load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := encodeProducts(products)
	if err != nil {
		s.logger.Error("failed to encode products", slog.String("key", key), slog.Any("error", err))
		return products, nil
	}
	s.cache.Set(key, data)
	return products, nil
}

func encodeProducts(products []entities.Product) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(products); err != nil {
		return nil, fmt.Errorf("failed to encode products: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeProducts(data []byte) ([]entities.Product, error) {
	var products []entities.Product
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}
