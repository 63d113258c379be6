package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

type Service struct {
	Repo *GormRepo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type Result struct {
	Coupon   *models.Coupon
	Discount decimal.Decimal
}

// Apply looks code up and evaluates it against subtotal. It has no side
// effects, so applying the same code twice gives the same answer. Rejections
// come back as *Rejection; anything else is an infrastructure failure.
func (s *Service) Apply(ctx context.Context, code string, subtotal decimal.Decimal, today time.Time) (*Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &Rejection{Code: code, Reason: ReasonNotFound}
	}

	c, err := s.Repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find coupon: %w", err)
	}

	discount, err := Evaluate(code, c, subtotal, today)
	if err != nil {
		return nil, err
	}
	return &Result{Coupon: c, Discount: discount}, nil
}

type CreateRequest struct {
	Code      string          `json:"code"`
	Discount  decimal.Decimal `json:"discount"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Active    *bool           `json:"active"`
}

const dateLayout = "2006-01-02"

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Coupon, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	if req.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must be >= 0", ErrValidation)
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrValidation)
	}

	if _, err := s.Repo.FindByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("%w: coupon %q already exists", ErrConflict, code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lc := models.LifecycleActive
	if req.Active != nil && !*req.Active {
		lc = models.LifecycleInactive
	}
	c := &models.Coupon{
		Code:      code,
		Discount:  req.Discount,
		StartDate: models.DateOf(start),
		EndDate:   models.DateOf(end),
		Lifecycle: lc,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coupon %q already exists", ErrConflict, code)
		}
		return nil, err
	}
	return c, nil
}

// UpdateRequest carries the fields an admin may change. Nil fields keep
// their stored value. Orders already placed keep the discount they were
// charged.
type UpdateRequest struct {
	Code      *string          `json:"code"`
	Discount  *decimal.Decimal `json:"discount"`
	StartDate *string          `json:"start_date"`
	EndDate   *string          `json:"end_date"`
	Active    *bool            `json:"active"`
}

func (s *Service) Update(ctx context.Context, id uint, req UpdateRequest) (*models.Coupon, error) {
	c, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("coupon %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: code required", ErrValidation)
		}
		if code != c.Code {
			if _, err := s.Repo.FindByCode(ctx, code); err == nil {
				return nil, fmt.Errorf("%w: coupon %q already exists", ErrConflict, code)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		c.Code = code
	}
	if req.Discount != nil {
		if req.Discount.IsNegative() {
			return nil, fmt.Errorf("%w: discount must be >= 0", ErrValidation)
		}
		c.Discount = *req.Discount
	}
	if req.StartDate != nil {
		start, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
		}
		c.StartDate = models.DateOf(start)
	}
	if req.EndDate != nil {
		end, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
		}
		c.EndDate = models.DateOf(end)
	}
	if c.EndDate.Before(c.StartDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrValidation)
	}
	if req.Active != nil {
		c.Lifecycle = models.LifecycleInactive
		if *req.Active {
			c.Lifecycle = models.LifecycleActive
		}
	}

	if err := s.Repo.Save(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coupon %q already exists", ErrConflict, c.Code)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, q string, offset, limit int) (int64, []models.Coupon, error) {
	return s.Repo.List(ctx, strings.TrimSpace(q), models.DateOf(s.now()), offset, limit)
}

// ListUsable returns coupons a shopper could apply today, largest discount first.
func (s *Service) ListUsable(ctx context.Context, today time.Time) ([]models.Coupon, error) {
	items, err := s.Repo.ListValidOn(ctx, models.DateOf(today))
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, c := range items {
		if c.ValidOn(today) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	n, err := s.Repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("coupon %d: %w", id, ErrNotFound)
	}
	return nil
}
