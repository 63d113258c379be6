package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/events"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/models"
	"github.com/pay2me/storefront/internal/notify"
	"github.com/pay2me/storefront/internal/payment/paypal"
)

var (
	ErrValidation     = errors.New("validation")
	ErrNotFound       = errors.New("not found")
	ErrBackwardStatus = errors.New("order status cannot move backwards")
	ErrGatewayManaged = errors.New("payment status is managed by the payment gateway")
	ErrUnhandledEvent = errors.New("unhandled webhook event")
)

type Service struct {
	Repo        *GormRepo
	Notifier    notify.Dispatcher
	Events      events.Publisher
	AdminEmails []string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

type Page struct {
	Query  string
	Offset int
	Limit  int
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, p Page) (int64, []models.Order, error) {
	return s.Repo.List(ctx, ListFilter{UserID: &userID, Query: strings.TrimSpace(p.Query), Offset: p.Offset, Limit: p.Limit})
}

func (s *Service) List(ctx context.Context, p Page) (int64, []models.Order, error) {
	return s.Repo.List(ctx, ListFilter{Query: strings.TrimSpace(p.Query), Offset: p.Offset, Limit: p.Limit})
}

func (s *Service) GetForUser(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error) {
	o, err := s.Repo.GetForUser(ctx, userID, orderID)
	return o, notFound(err, "order "+orderID)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Repo.Get(ctx, id)
	return o, notFound(err, fmt.Sprintf("order %d", id))
}

// Confirmation is the receipt shown after checkout, priced only from what
// the order stored when it was placed.
type Confirmation struct {
	Order    *models.Order   `json:"order"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Charges  decimal.Decimal `json:"charges"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

func (s *Service) Confirmation(ctx context.Context, userID uuid.UUID, orderID string) (*Confirmation, error) {
	o, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	subtotal := decimal.Zero
	for _, ln := range o.Lines {
		subtotal = subtotal.Add(ln.Total())
	}
	return &Confirmation{
		Order:    o,
		Subtotal: subtotal,
		// eco tax and shipping as charged at checkout
		Charges:  o.Total.Add(o.Discount).Sub(subtotal),
		Discount: o.Discount,
		Total:    o.Total,
	}, nil
}

// Track lets a shopper look an order up by its public id and the email of the
// account that placed it. Any mismatch is reported as not found.
func (s *Service) Track(ctx context.Context, orderID, email string) (*models.Order, error) {
	orderID, email = strings.TrimSpace(orderID), strings.TrimSpace(email)
	if orderID == "" || email == "" {
		return nil, fmt.Errorf("%w: order_id and email are required", ErrValidation)
	}
	u, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "order "+orderID)
	}
	return s.GetForUser(ctx, u.ID, orderID)
}

type Update struct {
	Status        *models.OrderStatus   `json:"status"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
}

// UpdateStatus applies a back-office edit. Status may only stay or move
// forward; payment status may only be edited on orders not paid through the
// gateway. Reaching Shipped sets the estimated delivery date, and any change
// to Shipped or beyond notifies the customer.
func (s *Service) UpdateStatus(ctx context.Context, id uint, upd Update) (*models.Order, error) {
	l := logging.FromContext(ctx).With("order", id)

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := o.Status

	if upd.PaymentStatus != nil && *upd.PaymentStatus != o.PaymentStatus {
		if !upd.PaymentStatus.Valid() {
			return nil, fmt.Errorf("%w: unknown payment status %d", ErrValidation, *upd.PaymentStatus)
		}
		if o.PaymentMethod == models.PaymentMethodPayPal {
			return nil, ErrGatewayManaged
		}
	}

	var change Change
	if upd.Status != nil && *upd.Status != o.Status {
		next := *upd.Status
		if !next.Valid() {
			return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, next)
		}
		if !o.Status.CanAdvanceTo(next) {
			return nil, fmt.Errorf("%w: %s to %s", ErrBackwardStatus, o.Status, next)
		}
		change.Status = &next
		if next == models.StatusShipped {
			change.EstimatedDelivery = EstimatedDelivery(o.ShippingMethod, s.now())
		}
	}
	if upd.PaymentStatus != nil && *upd.PaymentStatus != o.PaymentStatus {
		change.PaymentStatus = upd.PaymentStatus
	}

	ok, err := s.Repo.ApplyChange(ctx, o.ID, change)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order changed concurrently", ErrBackwardStatus)
	}
	if change.Status != nil {
		o.Status = *change.Status
	}
	if change.EstimatedDelivery != nil {
		o.EstimatedDelivery = change.EstimatedDelivery
	}
	if change.PaymentStatus != nil {
		o.PaymentStatus = *change.PaymentStatus
	}

	if o.Status != prev {
		l.Info("order_status_changed", "from", prev.String(), "to", o.Status.String())
		events.Publish(ctx, s.Events, events.TopicOrders, o.OrderID, map[string]any{
			"type":    "order_status_changed",
			"orderID": o.OrderID,
			"from":    int(prev),
			"to":      int(o.Status),
		})
		if o.Status >= models.StatusShipped {
			s.notifyStatus(ctx, o)
		}
	}
	return o, nil
}

func (s *Service) notifyStatus(ctx context.Context, o *models.Order) {
	if s.Notifier == nil {
		return
	}
	l := logging.FromContext(ctx)
	u, err := s.Repo.FindUser(ctx, o.UserID)
	if err != nil {
		l.Warn("order_status_notify_skipped", "order_id", o.OrderID, "reason", "customer not found", "error", err)
		return
	}
	s.Notifier.Submit(ctx, notify.Task{
		To:       []string{u.Email},
		Subject:  fmt.Sprintf("Order %s: %s", o.OrderID, o.Status),
		Template: notify.TemplateOrderStatus,
		Context:  StatusContext(o, u),
	})
}

// StatusContext is the template data for the order status email.
func StatusContext(o *models.Order, u *models.User) map[string]any {
	lines := make([]map[string]any, 0, len(o.Lines))
	for _, ln := range o.Lines {
		lines = append(lines, map[string]any{
			"product_name": ln.ProductName,
			"quantity":     ln.Quantity,
			"unit_price":   ln.UnitPrice.StringFixed(2),
			"total":        ln.Total().StringFixed(2),
		})
	}
	ctx := map[string]any{
		"first_name":       u.FirstName,
		"email":            u.Email,
		"order_id":         o.OrderID,
		"status":           o.Status.String(),
		"payment_status":   o.PaymentStatus.String(),
		"shipping_method":  o.ShippingMethod.String(),
		"shipping_address": o.ShippingAddress,
		"total":            o.Total.StringFixed(2),
		"discount":         o.Discount.StringFixed(2),
		"lines":            lines,
	}
	if o.EstimatedDelivery != nil {
		ctx["estimated_delivery"] = o.EstimatedDelivery.Format("2006-01-02")
	}
	return ctx
}

var webhookStatus = map[string]models.PaymentStatus{
	paypal.EventSaleCompleted: models.PaymentSuccess,
	paypal.EventSaleDenied:    models.PaymentFailure,
}

// HandleWebhook reconciles a gateway notification with the order created for
// its parent payment. Redelivered events are acknowledged without effect.
func (s *Service) HandleWebhook(ctx context.Context, ev *paypal.Event) (*models.Order, error) {
	l := logging.FromContext(ctx).With("event_id", ev.ID, "event_type", ev.EventType)

	status, ok := webhookStatus[ev.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, ev.EventType)
	}

	o, err := s.Repo.FindByTransactionID(ctx, ev.Resource.ParentPayment)
	if err != nil {
		return nil, notFound(err, "payment "+ev.Resource.ParentPayment)
	}

	if ev.ID == "" {
		if err := s.Repo.SetPaymentStatus(ctx, o.ID, status); err != nil {
			return nil, err
		}
	} else {
		applied, err := s.Repo.ApplyGatewayEvent(ctx, o, ev.ID, ev.EventType, status, s.now())
		if err != nil {
			return nil, err
		}
		if !applied {
			l.Info("webhook_duplicate", "order_id", o.OrderID)
			return o, nil
		}
	}

	prev := o.PaymentStatus
	o.PaymentStatus = status
	l.Info("webhook_applied", "order_id", o.OrderID, "payment_status", status.String())
	events.Publish(ctx, s.Events, events.TopicOrders, o.OrderID, map[string]any{
		"type":    "payment_status_changed",
		"orderID": o.OrderID,
		"from":    int(prev),
		"to":      int(status),
	})
	return o, nil
}

type Report struct {
	Since   time.Time       `json:"since"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DailyReport mails the back office a summary of orders placed in the 24
// hours before now.
func (s *Service) DailyReport(ctx context.Context) (*Report, error) {
	since := s.now().Add(-24 * time.Hour)
	orders, err := s.Repo.PlacedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	rep := &Report{Since: since, Count: len(orders), Revenue: decimal.Zero}
	rows := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		rep.Revenue = rep.Revenue.Add(o.Total)
		rows = append(rows, map[string]any{
			"order_id":       o.OrderID,
			"total":          o.Total.StringFixed(2),
			"status":         o.Status.String(),
			"payment_method": string(o.PaymentMethod),
		})
	}

	if s.Notifier != nil && len(s.AdminEmails) > 0 {
		s.Notifier.Submit(ctx, notify.Task{
			To:       s.AdminEmails,
			Template: notify.TemplateDailyReport,
			Context: map[string]any{
				"since":   since.Format(time.RFC3339),
				"count":   rep.Count,
				"revenue": rep.Revenue.StringFixed(2),
				"orders":  rows,
			},
		})
	}
	return rep, nil
}
