// Package address is the shopper's address book used to resolve checkout
// billing and shipping addresses.
package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var items []models.Address
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lifecycle = ?", userID, models.LifecycleActive).
		Order("is_primary DESC").Order("id ASC").
		Find(&items).Error
	return items, err
}

// GetForUser only returns active addresses owned by userID.
func (r *GormRepo) GetForUser(ctx context.Context, userID uuid.UUID, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND lifecycle = ?", id, userID, models.LifecycleActive).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) Create(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Primary {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND type = ?", a.UserID, a.Type).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

// Save rewrites an existing address, clearing the primary flag on its
// siblings of the same type first.
func (r *GormRepo) Save(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Primary {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND type = ? AND id <> ?", a.UserID, a.Type, a.ID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(a).Error
	})
}

func (r *GormRepo) SoftDelete(ctx context.Context, userID uuid.UUID, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND user_id = ? AND lifecycle = ?", id, userID, models.LifecycleActive).
		Updates(map[string]any{"lifecycle": models.LifecycleDeleted, "is_primary": false})
	return res.RowsAffected, res.Error
}

type Service struct {
	Repo *GormRepo
}

type CreateRequest struct {
	Type     string `json:"type"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
	Primary  bool   `json:"primary"`
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.Repo.ListForUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, id uint) (*models.Address, error) {
	a, err := s.Repo.GetForUser(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("address %d: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Address, error) {
	a := &models.Address{UserID: userID, Lifecycle: models.LifecycleActive}
	if err := req.apply(a); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the fields of one of userID's addresses. Orders keep the
// snapshot taken at checkout.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, id uint, req CreateRequest) (*models.Address, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(a); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id uint) error {
	n, err := s.Repo.SoftDelete(ctx, userID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("address %d: %w", id, ErrNotFound)
	}
	return nil
}

func (req CreateRequest) apply(a *models.Address) error {
	t := models.AddressType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !t.Valid() {
		return fmt.Errorf("%w: type must be billing or shipping", ErrValidation)
	}
	line := strings.TrimSpace(req.Address)
	city := strings.TrimSpace(req.City)
	country := strings.TrimSpace(req.Country)
	postcode := strings.TrimSpace(req.Postcode)
	if line == "" || city == "" || country == "" || postcode == "" {
		return fmt.Errorf("%w: address, city, country and postcode are required", ErrValidation)
	}
	a.Type = t
	a.Line = line
	a.City = city
	a.District = strings.TrimSpace(req.District)
	a.Country = country
	a.Postcode = postcode
	a.Primary = req.Primary
	return nil
}
