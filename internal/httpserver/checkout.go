package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/checkout"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/transport"
)

type CheckoutHTTP struct {
	Svc           *checkout.Service
	PublicBaseURL string
}

func (h *CheckoutHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.summary")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "checkout_summary_error", http.StatusUnauthorized, "unauthorized", err)
	}
	s, err := h.Svc.Summary(ctx, sessionToken(c), uid)
	if err != nil {
		return fail(l, "checkout_summary_error", http.StatusInternalServerError, "cannot load checkout", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *CheckoutHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.place_order")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "checkout_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "checkout_error", http.StatusBadRequest, "invalid body", err)
	}

	base := strings.TrimRight(h.PublicBaseURL, "/")
	res, err := h.Svc.Checkout(ctx, checkout.Request{
		Session:           sessionToken(c),
		UserID:            uid,
		CouponCode:        req.CouponCode,
		BillingAddressID:  req.BillingAddressID,
		ShippingAddressID: req.ShippingAddressID,
		ShippingMethod:    req.ShippingMethod,
		PaymentMethod:     req.PaymentMethod,
		ReturnURL:         base + "/payment/execute/",
		CancelURL:         base + "/payment/cancel/",
	})
	if err != nil {
		return checkoutErr(c, "checkout_error", err)
	}

	if res.Order == nil {
		l.Info("checkout_redirect", "payment_id", res.PaymentID)
		return c.JSON(http.StatusOK, res)
	}
	l.Info("checkout_success", "order_id", res.Order.OrderID)
	return c.JSON(http.StatusCreated, res)
}

func (h *CheckoutHTTP) PreviewCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.preview_coupon")

	var req transport.CouponRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "coupon_preview_error", http.StatusBadRequest, "invalid body", err)
	}
	p, err := h.Svc.PreviewCoupon(ctx, sessionToken(c), req.Code)
	if err != nil {
		return fail(l, "coupon_preview_error", http.StatusInternalServerError, "cannot apply coupon", err)
	}
	return c.JSON(http.StatusOK, p)
}

// checkoutErr maps checkout failures shared by placing and executing orders.
func checkoutErr(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, checkout.ErrValidation):
		return fail(l, event, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, checkout.ErrEmptyCart):
		return fail(l, event, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, checkout.ErrOutOfStock), errors.Is(err, catalog.ErrOutOfStock),
		errors.Is(err, checkout.ErrUnavailable):
		return fail(l, event, http.StatusConflict, err.Error(), err)
	case errors.Is(err, checkout.ErrBillingAddress):
		return fail(l, event, http.StatusUnprocessableEntity, checkout.ErrBillingAddress.Error(), err)
	case errors.Is(err, checkout.ErrPendingMissing):
		return fail(l, event, http.StatusConflict, checkout.ErrPendingMissing.Error(), err)
	case errors.Is(err, checkout.ErrPaymentGateway):
		return fail(l, event, http.StatusBadGateway, "payment error, please try again", err)
	default:
		return fail(l, event, http.StatusInternalServerError, "internal error", err)
	}
}
