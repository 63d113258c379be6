package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/cart"
	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/transport"
	"github.com/pay2me/storefront/internal/wishlist"
)

type CartHTTP struct {
	Svc *cart.Service
	// Wishlist, when set, loses a product once a signed-in shopper carts it.
	Wishlist *wishlist.Service
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	detail, err := h.Svc.Detail(ctx, sessionToken(c))
	if err != nil {
		return fail(l, "get_cart_error", http.StatusInternalServerError, "cannot load cart", err)
	}
	if len(detail.Unmatched) > 0 {
		l.Warn("cart_unmatched_products", "product_ids", detail.Unmatched)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "add_to_cart_error", http.StatusBadRequest, "invalid product id", err)
	}
	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "add_to_cart_error", http.StatusBadRequest, "invalid body", err)
	}

	qty, err := h.Svc.Add(ctx, sessionToken(c), id, req.Quantity)
	if err != nil {
		return h.mapErr(l, "add_to_cart_error", err)
	}

	if uid, err := userID(c); err == nil && h.Wishlist != nil {
		if err := h.Wishlist.Discard(ctx, uid, id); err != nil {
			l.Warn("wishlist_discard_error", "product_id", id, "error", err)
		}
	}

	l.Info("add_to_cart_success", "product_id", id, "quantity", qty)
	return c.JSON(http.StatusOK, map[string]any{"product_id": id, "quantity": qty})
}

func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "update_cart_error", http.StatusBadRequest, "invalid product id", err)
	}
	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_cart_error", http.StatusBadRequest, "invalid body", err)
	}

	if err := h.Svc.UpdateQuantity(ctx, sessionToken(c), id, req.Quantity); err != nil {
		return h.mapErr(l, "update_cart_error", err)
	}
	return h.GetCart(c)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "remove_from_cart_error", http.StatusBadRequest, "invalid product id", err)
	}
	if err := h.Svc.Remove(ctx, sessionToken(c), id); err != nil {
		return fail(l, "remove_from_cart_error", http.StatusInternalServerError, "cannot update cart", err)
	}
	return h.GetCart(c)
}

func (h *CartHTTP) mapErr(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return fail(l, event, http.StatusNotFound, "product not found", err)
	case errors.Is(err, catalog.ErrOutOfStock):
		return fail(l, event, http.StatusConflict, err.Error(), err)
	default:
		return fail(l, event, http.StatusInternalServerError, "cannot update cart", err)
	}
}
