// Package review stores product ratings and comments. A shopper has at most
// one review per product.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pay2me/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const maxMessage = 2000

type ProductReader interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type GormRepo struct {
	DB *gorm.DB
}

// Upsert inserts rv or replaces the rating and message of the existing
// review for the same user and product.
func (r *GormRepo) Upsert(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "message", "lifecycle", "updated_at"}),
	}).Create(rv).Error
}

func (r *GormRepo) Find(ctx context.Context, userID uuid.UUID, productID uint) (*models.Review, error) {
	var rv models.Review
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&rv).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *GormRepo) ListForProduct(ctx context.Context, productID uint, offset, limit int) (int64, []models.Review, error) {
	query := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND lifecycle = ?", productID, models.LifecycleActive)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Review
	if err := query.Order("updated_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// RatingSum returns the number of active reviews and the sum of their ratings.
func (r *GormRepo) RatingSum(ctx context.Context, productID uint) (int64, int64, error) {
	var row struct {
		N   int64
		Sum int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COUNT(*) AS n, COALESCE(SUM(rating), 0) AS sum").
		Where("product_id = ? AND lifecycle = ?", productID, models.LifecycleActive).
		Scan(&row).Error
	return row.N, row.Sum, err
}

type Service struct {
	Repo     *GormRepo
	Products ProductReader
}

type SubmitRequest struct {
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

func (s *Service) Submit(ctx context.Context, userID uuid.UUID, productID uint, req SubmitRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	msg := strings.TrimSpace(req.Message)
	if len(msg) > maxMessage {
		return nil, fmt.Errorf("%w: message is longer than %d characters", ErrValidation, maxMessage)
	}
	if _, err := s.Products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}

	rv := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Message:   msg,
		Lifecycle: models.LifecycleActive,
	}
	if err := s.Repo.Upsert(ctx, rv); err != nil {
		return nil, err
	}
	return s.Repo.Find(ctx, userID, productID)
}

type Summary struct {
	Count   int64           `json:"count"`
	Average decimal.Decimal `json:"average"`
	Reviews []models.Review `json:"reviews"`
}

// ForProduct pages through a product's reviews; the average covers all of
// them, rounded to one decimal place.
func (s *Service) ForProduct(ctx context.Context, productID uint, offset, limit int) (*Summary, error) {
	n, sum, err := s.Repo.RatingSum(ctx, productID)
	if err != nil {
		return nil, err
	}
	_, items, err := s.Repo.ListForProduct(ctx, productID, offset, limit)
	if err != nil {
		return nil, err
	}
	out := &Summary{Count: n, Average: decimal.Zero, Reviews: items}
	if n > 0 {
		out.Average = decimal.NewFromInt(sum).Div(decimal.NewFromInt(n)).Round(1)
	}
	return out, nil
}
