package coupon

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pay2me/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// FindByCode matches the exact code among coupons that are not deleted.
func (r *GormRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).
		Where("code = ? AND lifecycle <> ?", code, models.LifecycleDeleted).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND lifecycle <> ?", id, models.LifecycleDeleted).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) Save(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) Create(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// List orders coupons valid on day first, newest start date next.
func (r *GormRepo) List(ctx context.Context, q string, day time.Time, offset, limit int) (int64, []models.Coupon, error) {
	query := r.DB.WithContext(ctx).Model(&models.Coupon{}).Where("lifecycle <> ?", models.LifecycleDeleted)
	if q != "" {
		query = query.Where("code LIKE ?", "%"+q+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Coupon
	order := clause.OrderBy{Expression: clause.Expr{
		SQL:                "CASE WHEN lifecycle = ? AND start_date <= ? AND end_date >= ? THEN 0 ELSE 1 END, start_date DESC, id DESC",
		Vars:               []any{models.LifecycleActive, day, day},
		WithoutParentheses: true,
	}}
	if err := query.Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListValidOn(ctx context.Context, day time.Time) ([]models.Coupon, error) {
	var items []models.Coupon
	err := r.DB.WithContext(ctx).
		Where("lifecycle = ? AND start_date <= ? AND end_date >= ?", models.LifecycleActive, day, day).
		Order("discount DESC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) SoftDelete(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND lifecycle <> ?", id, models.LifecycleDeleted).
		Update("lifecycle", models.LifecycleDeleted)
	return res.RowsAffected, res.Error
}
