// Package checkout turns a session cart into an order, either immediately for
// cash on delivery or after the payment gateway confirms a PayPal payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/address"
	"github.com/pay2me/storefront/internal/cart"
	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/coupon"
	"github.com/pay2me/storefront/internal/events"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/models"
	"github.com/pay2me/storefront/internal/order"
	"github.com/pay2me/storefront/internal/payment/paypal"
	"github.com/pay2me/storefront/internal/session"
)

var (
	ErrValidation     = errors.New("validation")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrOutOfStock     = catalog.ErrOutOfStock
	ErrUnavailable    = errors.New("product is no longer available")
	ErrBillingAddress = errors.New("must set a valid billing address")
	ErrPaymentGateway = errors.New("payment gateway error")
	ErrPendingMissing = errors.New("checkout session expired, please try again")
)

type Gateway interface {
	CreatePayment(ctx context.Context, req paypal.CreateRequest) (*paypal.Payment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (*paypal.Execution, error)
}

type Service struct {
	DB        *gorm.DB
	Cart      *cart.Service
	Coupons   *coupon.Service
	Addresses *address.Service
	Gateway   Gateway
	Sessions  session.Store
	Events    events.Publisher
	Now       func() time.Time

	// OrderIDs generates public order ids; models.NewOrderID when nil.
	OrderIDs func(paidAt time.Time) string
}

const orderIDAttempts = 3

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type Request struct {
	Session           string
	UserID            uuid.UUID
	CouponCode        string
	BillingAddressID  uint
	ShippingAddressID uint
	ShippingMethod    models.ShippingMethod
	PaymentMethod     string
	ReturnURL         string
	CancelURL         string
}

type Result struct {
	Order         *models.Order   `json:"order,omitempty"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	CouponMessage string          `json:"coupon_message,omitempty"`
}

// Checkout validates the cart and addresses, prices the order once and then
// either places it (cash on delivery) or hands the shopper to the gateway
// (PayPal). A rejected coupon is reported in the result and never aborts.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	l := logging.FromContext(ctx).With("user_id", req.UserID)

	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.ShippingMethod == 0 {
		req.ShippingMethod = models.ShippingStandard
	}
	if !req.ShippingMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown shipping method %d", ErrValidation, req.ShippingMethod)
	}

	detail, err := s.Cart.Detail(ctx, req.Session)
	if err != nil {
		return nil, err
	}
	if len(detail.Unmatched) > 0 {
		return nil, fmt.Errorf("%w: product %d", ErrUnavailable, detail.Unmatched[0])
	}
	if len(detail.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, ln := range detail.Lines {
		if !ln.Product.InStock(ln.Quantity) {
			return nil, fmt.Errorf("%w: %s has only %d left", ErrOutOfStock, ln.Product.Name, ln.Product.Quantity)
		}
	}

	billing, shipping, err := s.resolveAddresses(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &Result{Subtotal: detail.Subtotal, Discount: decimal.Zero}
	var couponID *uint
	if strings.TrimSpace(req.CouponCode) != "" {
		applied, err := s.Coupons.Apply(ctx, req.CouponCode, detail.Subtotal, s.now())
		var rej *coupon.Rejection
		switch {
		case errors.As(err, &rej):
			res.CouponMessage = rej.Message()
			l.Info("checkout_coupon_rejected", "code", rej.Code, "reason", rej.Reason)
		case err != nil:
			return nil, err
		default:
			res.Discount = applied.Discount
			couponID = &applied.Coupon.ID
		}
	}
	res.Total = cart.Total(detail.Subtotal, res.Discount)

	pending := Pending{
		UserID:          req.UserID,
		Total:           res.Total,
		Discount:        res.Discount,
		CouponID:        couponID,
		BillingAddress:  billing.Snapshot(),
		ShippingAddress: shipping.Snapshot(),
		ShippingMethod:  req.ShippingMethod,
	}
	for _, ln := range detail.Lines {
		pending.Lines = append(pending.Lines, PendingLine{
			ProductID:   ln.Product.ID,
			ProductName: ln.Product.Name,
			Quantity:    ln.Quantity,
			UnitPrice:   ln.Product.Price,
		})
	}

	if method == models.PaymentMethodCashOnDelivery {
		o, err := s.place(ctx, pending, models.PaymentMethodCashOnDelivery, models.PaymentPending, nil)
		if err != nil {
			return nil, err
		}
		if err := s.Cart.Clear(ctx, req.Session); err != nil {
			l.Warn("checkout_cart_clear_error", "order_id", o.OrderID, "error", err)
		}
		res.Order = o
		return res, nil
	}

	payment, err := s.Gateway.CreatePayment(ctx, paypal.CreateRequest{
		Total:       res.Total,
		Description: fmt.Sprintf("Order of %d items", detail.Count),
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		l.Error("checkout_gateway_error", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	pending.PaymentID = payment.ID
	if err := s.Sessions.Set(ctx, req.Session, session.KeyPendingCheckout, pending); err != nil {
		return nil, err
	}

	l.Info("checkout_redirect", "payment_id", payment.ID)
	res.RedirectURL = payment.ApprovalURL
	res.PaymentID = payment.ID
	return res, nil
}

func (s *Service) resolveAddresses(ctx context.Context, req Request) (*models.Address, *models.Address, error) {
	if req.BillingAddressID == 0 {
		return nil, nil, ErrBillingAddress
	}
	billing, err := s.Addresses.Get(ctx, req.UserID, req.BillingAddressID)
	if errors.Is(err, address.ErrNotFound) {
		return nil, nil, ErrBillingAddress
	}
	if err != nil {
		return nil, nil, err
	}

	shipping := billing
	if req.ShippingAddressID != 0 {
		a, err := s.Addresses.Get(ctx, req.UserID, req.ShippingAddressID)
		switch {
		case err == nil:
			shipping = a
		case !errors.Is(err, address.ErrNotFound):
			return nil, nil, err
		}
	}
	return billing, shipping, nil
}

func (s *Service) newOrderID(paidAt time.Time) string {
	if s.OrderIDs != nil {
		return s.OrderIDs(paidAt)
	}
	return models.NewOrderID(paidAt)
}

func newOrder(p Pending, method models.PaymentMethod, status models.PaymentStatus, txID *string, paidAt time.Time) *models.Order {
	o := &models.Order{
		UserID:          p.UserID,
		Status:          models.StatusNotPacked,
		PaymentStatus:   status,
		PaymentMethod:   method,
		BillingAddress:  p.BillingAddress,
		ShippingAddress: p.ShippingAddress,
		Total:           p.Total,
		CouponID:        p.CouponID,
		Discount:        p.Discount,
		ShippingMethod:  p.ShippingMethod,
		PaidAt:          paidAt,
		TransactionID:   txID,
	}
	for _, ln := range p.Lines {
		o.Lines = append(o.Lines, models.OrderLine{
			ProductID:   ln.ProductID,
			ProductName: ln.ProductName,
			Quantity:    ln.Quantity,
			UnitPrice:   ln.UnitPrice,
		})
	}
	return o
}

// place writes the order, its lines and the stock decrements in one
// transaction. If any product no longer has enough stock nothing is written.
// A clash on the generated order id rolls back and retries with a new id.
func (s *Service) place(ctx context.Context, p Pending, method models.PaymentMethod, status models.PaymentStatus, txID *string) (*models.Order, error) {
	paidAt := s.now()

	var o *models.Order
	var err error
	for attempt := 1; attempt <= orderIDAttempts; attempt++ {
		o = newOrder(p, method, status, txID, paidAt)
		o.OrderID = s.newOrderID(paidAt)

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			products := &catalog.GormRepo{DB: tx}
			for _, ln := range p.Lines {
				if err := products.DecrementStock(ctx, ln.ProductID, ln.Quantity); err != nil {
					if errors.Is(err, catalog.ErrOutOfStock) {
						return fmt.Errorf("%w: %s", ErrOutOfStock, ln.ProductName)
					}
					return err
				}
			}
			return (&order.GormRepo{DB: tx}).Create(ctx, o)
		})
		if err == nil || errors.Is(err, ErrOutOfStock) || !s.orderIDTaken(ctx, o.OrderID) {
			break
		}
		logging.FromContext(ctx).Warn("order_id_collision", "order_id", o.OrderID, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicOrders, o.OrderID, map[string]any{
		"type":          "order_created",
		"orderID":       o.OrderID,
		"userID":        o.UserID.String(),
		"total":         o.Total.StringFixed(2),
		"paymentMethod": string(o.PaymentMethod),
	})
	return o, nil
}

func (s *Service) orderIDTaken(ctx context.Context, orderID string) bool {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("order_id = ?", orderID).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}

// Execute completes a PayPal checkout after the shopper approved the payment.
// The gateway is charged first; the order is then built from the pending
// entry staged by Checkout.
func (s *Service) Execute(ctx context.Context, sess string, userID uuid.UUID, paymentID, payerID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("payment_id", paymentID)

	if paymentID == "" || payerID == "" {
		return nil, fmt.Errorf("%w: paymentId and PayerID are required", ErrValidation)
	}

	if _, err := s.Gateway.ExecutePayment(ctx, paymentID, payerID); err != nil {
		l.Error("payment_execute_error", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	var p Pending
	ok, err := s.Sessions.Get(ctx, sess, session.KeyPendingCheckout, &p)
	if err != nil {
		return nil, err
	}
	if !ok || p.PaymentID != paymentID || p.UserID != userID {
		l.Error("payment_without_pending_checkout", "user_id", userID)
		return nil, ErrPendingMissing
	}

	o, err := s.place(ctx, p, models.PaymentMethodPayPal, models.PaymentSuccess, &paymentID)
	if err != nil {
		l.Error("paid_order_not_created", "reason", "needs manual reconciliation", "error", err)
		return nil, err
	}

	if err := s.Sessions.Delete(ctx, sess, session.KeyPendingCheckout); err != nil {
		l.Warn("pending_checkout_clear_error", "error", err)
	}
	if err := s.Cart.Clear(ctx, sess); err != nil {
		l.Warn("checkout_cart_clear_error", "order_id", o.OrderID, "error", err)
	}
	l.Info("payment_executed", "order_id", o.OrderID)
	return o, nil
}

// Cancel discards the pending checkout when the shopper backs out of the
// gateway. The cart is kept.
func (s *Service) Cancel(ctx context.Context, sess string) error {
	return s.Sessions.Delete(ctx, sess, session.KeyPendingCheckout)
}

type Summary struct {
	Cart      *cart.Detail     `json:"cart"`
	Addresses []models.Address `json:"addresses"`
	Coupons   []models.Coupon  `json:"coupons"`
}

func (s *Service) Summary(ctx context.Context, sess string, userID uuid.UUID) (*Summary, error) {
	detail, err := s.Cart.Detail(ctx, sess)
	if err != nil {
		return nil, err
	}
	addrs, err := s.Addresses.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	coupons, err := s.Coupons.ListUsable(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return &Summary{Cart: detail, Addresses: addrs, Coupons: coupons}, nil
}

type Preview struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Applied  bool            `json:"applied"`
	Message  string          `json:"message,omitempty"`
}

// PreviewCoupon prices the current cart with code without placing anything.
func (s *Service) PreviewCoupon(ctx context.Context, sess, code string) (*Preview, error) {
	subtotal, err := s.Cart.Subtotal(ctx, sess)
	if err != nil {
		return nil, err
	}
	p := &Preview{Subtotal: subtotal, Discount: decimal.Zero}

	applied, err := s.Coupons.Apply(ctx, code, subtotal, s.now())
	var rej *coupon.Rejection
	switch {
	case errors.As(err, &rej):
		p.Message = rej.Message()
	case err != nil:
		return nil, err
	default:
		p.Discount = applied.Discount
		p.Applied = true
	}
	p.Total = cart.Total(subtotal, p.Discount)
	return p, nil
}
