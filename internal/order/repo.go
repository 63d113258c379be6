package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Create(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *GormRepo) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := withLines(r.DB.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) GetForUser(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error) {
	var o models.Order
	if err := withLines(r.DB.WithContext(ctx)).
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) FindByTransactionID(ctx context.Context, txID string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Where("transaction_id = ?", txID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

type ListFilter struct {
	UserID *uuid.UUID
	Query  string
	Offset int
	Limit  int
}

func (r *GormRepo) List(ctx context.Context, f ListFilter) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Query != "" {
		q = q.Where("order_id LIKE ?", "%"+f.Query+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Limit(f.Limit).Offset(f.Offset).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) PlacedSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	var items []models.Order
	err := r.DB.WithContext(ctx).Where("created_at >= ?", since).Order("created_at ASC").Find(&items).Error
	return items, err
}

// Change is a back-office edit; nil fields are left alone.
type Change struct {
	Status            *models.OrderStatus
	EstimatedDelivery *time.Time
	PaymentStatus     *models.PaymentStatus
}

// ApplyChange writes c as one statement so a partial edit is never stored. A
// status change only lands while the stored status is not ahead of it, so a
// concurrent edit can never move an order backwards. It reports whether a row
// was written.
func (r *GormRepo) ApplyChange(ctx context.Context, id uint, c Change) (bool, error) {
	updates := map[string]any{}
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if c.Status != nil {
		updates["status"] = *c.Status
		q = q.Where("status <= ?", *c.Status)
	}
	if c.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *c.EstimatedDelivery
	}
	if c.PaymentStatus != nil {
		updates["payment_status"] = *c.PaymentStatus
	}
	if len(updates) == 0 {
		return true, nil
	}
	res := q.Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) SetPaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("payment_status", status).Error
}

// ApplyGatewayEvent records eventID and sets the payment status in one
// transaction. It returns false when eventID was already applied.
func (r *GormRepo) ApplyGatewayEvent(ctx context.Context, o *models.Order, eventID, eventType string, status models.PaymentStatus, at time.Time) (bool, error) {
	applied := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.WebhookEvent{}).Where("event_id = ?", eventID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return nil
		}
		if err := tx.Create(&models.WebhookEvent{EventID: eventID, EventType: eventType, OrderID: o.ID, ProcessedAt: at}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Update("payment_status", status).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
