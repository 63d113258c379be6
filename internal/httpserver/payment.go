package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/checkout"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/order"
	"github.com/pay2me/storefront/internal/payment/paypal"
)

const maxWebhookBody = 1 << 20

type PaymentHTTP struct {
	Checkout *checkout.Service
	Orders   *order.Service
}

// Execute is the gateway's return URL after the buyer approved the payment.
func (h *PaymentHTTP) Execute(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.execute")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "payment_execute_error", http.StatusUnauthorized, "unauthorized", err)
	}

	o, err := h.Checkout.Execute(ctx, sessionToken(c), uid, c.QueryParam("paymentId"), c.QueryParam("PayerID"))
	if err != nil {
		return checkoutErr(c, "payment_execute_error", err)
	}

	l.Info("payment_execute_success", "order_id", o.OrderID)
	return c.JSON(http.StatusCreated, o)
}

func (h *PaymentHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.cancel")

	if err := h.Checkout.Cancel(ctx, sessionToken(c)); err != nil {
		return fail(l, "payment_cancel_error", http.StatusInternalServerError, "internal error", err)
	}
	l.Info("payment_cancelled")
	return c.JSON(http.StatusOK, map[string]string{"message": "payment cancelled"})
}

// Webhook reconciles out-of-band gateway notifications. Inbound signatures
// are not verified.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return fail(l, "webhook_error", http.StatusBadRequest, "cannot read body", err)
	}
	ev, err := paypal.ParseEvent(raw)
	if err != nil {
		return fail(l, "webhook_error", http.StatusBadRequest, "malformed event", err)
	}

	o, err := h.Orders.HandleWebhook(ctx, ev)
	switch {
	case errors.Is(err, order.ErrUnhandledEvent):
		return fail(l, "webhook_error", http.StatusBadRequest, "unhandled event type", err)
	case errors.Is(err, order.ErrNotFound):
		return fail(l, "webhook_error", http.StatusNotFound, "order not found", err)
	case err != nil:
		return fail(l, "webhook_error", http.StatusInternalServerError, "internal error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "ok",
		"order_id":       o.OrderID,
		"payment_status": o.PaymentStatus.String(),
	})
}
