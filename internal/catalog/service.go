package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/events"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrOutOfStock = errors.New("out of stock")
)

// Indexer mirrors catalog writes into the search index.
type Indexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
}

type CatalogService struct {
	Repo    *GormRepo
	Indexer Indexer
	Events  events.Publisher
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	CategoryID  *uint           `json:"category_id"`
	Featured    bool            `json:"featured"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity"`
	Featured    *bool            `json:"featured"`
	Lifecycle   *string          `json:"lifecycle"`
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uint, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, categoryID, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}

	prod := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		CategoryID:  req.CategoryID,
		Featured:    req.Featured,
		Lifecycle:   models.LifecycleActive,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, prod, "product_created")
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req PatchProductRequest) (*models.Product, error) {
	prod, err := s.Repo.FindAny(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name required", ErrValidation)
		}
		prod.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		prod.Price = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
		}
		prod.Quantity = *req.Quantity
	}
	if req.Featured != nil {
		prod.Featured = *req.Featured
	}
	if req.Lifecycle != nil {
		lc, err := models.ParseLifecycle(*req.Lifecycle)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		prod.Lifecycle = lc
	}

	if err := s.Repo.SaveProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, prod, "product_updated")
	return prod, nil
}

func (s *CatalogService) afterWrite(ctx context.Context, prod *models.Product, eventType string) {
	if s.Indexer != nil {
		if err := s.Indexer.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Warn("product_index_error", "product_id", prod.ID, "error", err)
		}
	}
	events.Publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(prod.ID), 10), map[string]any{
		"type":      eventType,
		"productID": prod.ID,
		"name":      prod.Name,
		"quantity":  prod.Quantity,
	})
}
