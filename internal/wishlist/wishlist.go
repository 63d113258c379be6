// Package wishlist keeps the products a signed-in shopper saved for later
// and reports them to admins once a week.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/models"
	"github.com/pay2me/storefront/internal/notify"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type ProductReader interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type GormRepo struct {
	DB *gorm.DB
}

// Find returns the item for userID and productID whatever its lifecycle.
func (r *GormRepo) Find(ctx context.Context, userID uuid.UUID, productID uint) (*models.WishlistItem, error) {
	var it models.WishlistItem
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *GormRepo) Create(ctx context.Context, it *models.WishlistItem) error {
	return r.DB.WithContext(ctx).Omit("Product").Create(it).Error
}

// Move switches the item's lifecycle from one state to another and reports
// how many rows changed.
func (r *GormRepo) Move(ctx context.Context, userID uuid.UUID, productID uint, from, to models.Lifecycle) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ? AND lifecycle = ?", userID, productID, from).
		Update("lifecycle", to)
	return res.RowsAffected, res.Error
}

// ListForUser skips items whose product is no longer on sale.
func (r *GormRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.DB.WithContext(ctx).
		Preload("Product", "lifecycle = ?", models.LifecycleActive).
		Where("user_id = ? AND lifecycle = ?", userID, models.LifecycleActive).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if it.Product.ID != 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

type Entry struct {
	Email       string
	ProductID   uint
	ProductName string
	CreatedAt   time.Time
}

func (r *GormRepo) ListActive(ctx context.Context) ([]Entry, error) {
	var out []Entry
	err := r.DB.WithContext(ctx).
		Table("wishlist_items AS w").
		Select("u.email AS email, p.id AS product_id, p.name AS product_name, w.created_at AS created_at").
		Joins("JOIN users u ON u.id = w.user_id").
		Joins("JOIN products p ON p.id = w.product_id").
		Where("w.lifecycle = ?", models.LifecycleActive).
		Order("w.created_at ASC").Order("w.id ASC").
		Scan(&out).Error
	return out, err
}

type Service struct {
	Repo        *GormRepo
	Products    ProductReader
	Notifier    notify.Dispatcher
	AdminEmails []string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Add saves productID for userID. A previously removed item comes back;
// one that is already saved is a conflict.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, productID uint) (*models.WishlistItem, error) {
	p, err := s.Products.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	it, err := s.Repo.Find(ctx, userID, productID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		it = &models.WishlistItem{UserID: userID, ProductID: productID, Lifecycle: models.LifecycleActive}
		if err := s.Repo.Create(ctx, it); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("%w: %q is already in your wishlist", ErrConflict, p.Name)
			}
			return nil, err
		}
	case err != nil:
		return nil, err
	case it.Lifecycle.IsActive():
		return nil, fmt.Errorf("%w: %q is already in your wishlist", ErrConflict, p.Name)
	default:
		n, err := s.Repo.Move(ctx, userID, productID, it.Lifecycle, models.LifecycleActive)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %q is already in your wishlist", ErrConflict, p.Name)
		}
		it.Lifecycle = models.LifecycleActive
	}
	it.Product = *p
	return it, nil
}

func (s *Service) Remove(ctx context.Context, userID uuid.UUID, productID uint) error {
	n, err := s.Repo.Move(ctx, userID, productID, models.LifecycleActive, models.LifecycleDeleted)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wishlist product %d: %w", productID, ErrNotFound)
	}
	return nil
}

// Discard drops productID from the wishlist if it is there. Adding a saved
// product to the cart calls it.
func (s *Service) Discard(ctx context.Context, userID uuid.UUID, productID uint) error {
	_, err := s.Repo.Move(ctx, userID, productID, models.LifecycleActive, models.LifecycleDeleted)
	return err
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	return s.Repo.ListForUser(ctx, userID)
}

// WeeklyReport mails every saved item to the admins. Nothing is sent when
// no wishlist holds anything.
func (s *Service) WeeklyReport(ctx context.Context) (int, error) {
	entries, err := s.Repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		logging.FromContext(ctx).Info("weekly_wishlist_report_skipped", "reason", "no saved items")
		return 0, nil
	}

	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"email":        e.Email,
			"product_id":   e.ProductID,
			"product_name": e.ProductName,
			"added":        e.CreatedAt.Format("2006-01-02"),
		})
	}
	if s.Notifier != nil && len(s.AdminEmails) > 0 {
		s.Notifier.Submit(ctx, notify.Task{
			To:       s.AdminEmails,
			Template: notify.TemplateWeeklyWishes,
			Context: map[string]any{
				"as_of": s.now().Format("2006-01-02"),
				"count": len(entries),
				"items": rows,
			},
		})
	}
	return len(entries), nil
}
