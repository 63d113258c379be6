// Package cart keeps a visitor's product selection in the session store.
// Prices are never stored: every read joins the current catalog.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/models"
	"github.com/pay2me/storefront/internal/session"
)

var (
	EcoTax       = decimal.RequireFromString("2.00")
	ShippingCost = decimal.Zero
)

type ProductReader interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	GetProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

type Service struct {
	Store    session.Store
	Products ProductReader
}

type Line struct {
	Product   models.Product  `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Detail struct {
	Lines     []Line          `json:"lines"`
	Count     int             `json:"count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	EcoTax    decimal.Decimal `json:"eco_tax"`
	Shipping  decimal.Decimal `json:"shipping_cost"`
	Total     decimal.Decimal `json:"total"`
	Unmatched []uint          `json:"-"`
}

func (s *Service) load(ctx context.Context, token string) (map[uint]int, error) {
	items := map[uint]int{}
	if _, err := s.Store.Get(ctx, token, session.KeyCart, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) save(ctx context.Context, token string, items map[uint]int) error {
	return s.Store.Set(ctx, token, session.KeyCart, items)
}

func (s *Service) product(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Products.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return p, err
}

// Add increases the quantity of productID by qty (1 when qty <= 0). The cart
// is left unchanged when the result would exceed stock on hand.
func (s *Service) Add(ctx context.Context, token string, productID uint, qty int) (int, error) {
	if qty <= 0 {
		qty = 1
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		return 0, err
	}
	items, err := s.load(ctx, token)
	if err != nil {
		return 0, err
	}

	next := items[productID] + qty
	if next > p.Quantity {
		return items[productID], fmt.Errorf("%w: only %d of %q available", catalog.ErrOutOfStock, p.Quantity, p.Name)
	}
	items[productID] = next
	return next, s.save(ctx, token, items)
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, token string, productID uint, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, token, productID)
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.Quantity {
		return fmt.Errorf("%w: only %d of %q available", catalog.ErrOutOfStock, p.Quantity, p.Name)
	}
	items, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	items[productID] = qty
	return s.save(ctx, token, items)
}

func (s *Service) Remove(ctx context.Context, token string, productID uint) error {
	items, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	if _, ok := items[productID]; !ok {
		return nil
	}
	delete(items, productID)
	return s.save(ctx, token, items)
}

func (s *Service) Clear(ctx context.Context, token string) error {
	return s.Store.Delete(ctx, token, session.KeyCart)
}

// Detail resolves the cart against current products. Entries whose product is
// gone or inactive are reported in Detail.Unmatched and excluded from totals.
func (s *Service) Detail(ctx context.Context, token string) (*Detail, error) {
	items, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	products, err := s.Products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	d := &Detail{Subtotal: decimal.Zero}
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			d.Unmatched = append(d.Unmatched, id)
			continue
		}
		qty := items[id]
		lt := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		d.Lines = append(d.Lines, Line{Product: p, Quantity: qty, LineTotal: lt})
		d.Subtotal = d.Subtotal.Add(lt)
		d.Count += qty
	}
	d.EcoTax = EcoTax
	d.Shipping = ShippingCost
	d.Total = Total(d.Subtotal, decimal.Zero)
	return d, nil
}

func (s *Service) Subtotal(ctx context.Context, token string) (decimal.Decimal, error) {
	d, err := s.Detail(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Subtotal, nil
}

// Total is subtotal plus the flat eco tax and shipping cost, minus discount.
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(EcoTax).Add(ShippingCost).Sub(discount)
}
