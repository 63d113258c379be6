package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/order"
	"github.com/pay2me/storefront/internal/transport"
	"github.com/pay2me/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *order.Service
}

func (h *OrderHTTP) page(c echo.Context) (int, order.Page) {
	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, parseIntDefault(c.QueryParam("size"), defaultPageSize))
	return page, order.Page{Query: c.QueryParam("q"), Offset: offset, Limit: limit}
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "my_orders_error", http.StatusUnauthorized, "unauthorized", err)
	}
	page, p := h.page(c)
	total, items, err := h.Svc.ListForUser(ctx, uid, p)
	if err != nil {
		return fail(l, "my_orders_error", http.StatusInternalServerError, "cannot list orders", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items, "meta": util.Meta(page, p.Limit, total)})
}

func (h *OrderHTTP) MyOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_order")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "my_order_error", http.StatusUnauthorized, "unauthorized", err)
	}
	o, err := h.Svc.GetForUser(ctx, uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return fail(l, "my_order_error", http.StatusNotFound, "order not found", err)
		}
		return fail(l, "my_order_error", http.StatusInternalServerError, "cannot load order", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Confirmation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirmation")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "order_confirmation_error", http.StatusUnauthorized, "unauthorized", err)
	}
	conf, err := h.Svc.Confirmation(ctx, uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return fail(l, "order_confirmation_error", http.StatusNotFound, "order not found", err)
		}
		return fail(l, "order_confirmation_error", http.StatusInternalServerError, "cannot load order", err)
	}
	return c.JSON(http.StatusOK, conf)
}

func (h *OrderHTTP) Track(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.track")

	var req transport.TrackRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "track_order_error", http.StatusBadRequest, "invalid body", err)
	}
	o, err := h.Svc.Track(ctx, req.OrderID, req.Email)
	switch {
	case errors.Is(err, order.ErrValidation):
		return fail(l, "track_order_error", http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, order.ErrNotFound):
		return fail(l, "track_order_error", http.StatusNotFound, "order not found", err)
	case err != nil:
		return fail(l, "track_order_error", http.StatusInternalServerError, "cannot load order", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"order_id":           o.OrderID,
		"status":             o.Status.String(),
		"payment_status":     o.PaymentStatus.String(),
		"estimated_delivery": o.EstimatedDelivery,
	})
}

func (h *OrderHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_list")

	page, p := h.page(c)
	total, items, err := h.Svc.List(ctx, p)
	if err != nil {
		return fail(l, "admin_orders_error", http.StatusInternalServerError, "cannot list orders", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items, "meta": util.Meta(page, p.Limit, total)})
}

func (h *OrderHTTP) AdminGet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_get")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "admin_order_error", http.StatusBadRequest, "invalid order id", err)
	}
	o, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return fail(l, "admin_order_error", http.StatusNotFound, "order not found", err)
		}
		return fail(l, "admin_order_error", http.StatusInternalServerError, "cannot load order", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"order": o,
		// gateway-paid orders have their payment status owned by the gateway
		"payment_status_editable": o.IsCashOnDelivery(),
	})
}

func (h *OrderHTTP) AdminUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_update")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "admin_order_update_error", http.StatusBadRequest, "invalid order id", err)
	}
	var req order.Update
	if err := c.Bind(&req); err != nil {
		return fail(l, "admin_order_update_error", http.StatusBadRequest, "invalid body", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req)
	switch {
	case errors.Is(err, order.ErrValidation):
		return fail(l, "admin_order_update_error", http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, order.ErrNotFound):
		return fail(l, "admin_order_update_error", http.StatusNotFound, "order not found", err)
	case errors.Is(err, order.ErrBackwardStatus), errors.Is(err, order.ErrGatewayManaged):
		return fail(l, "admin_order_update_error", http.StatusConflict, err.Error(), err)
	case err != nil:
		return fail(l, "admin_order_update_error", http.StatusInternalServerError, "cannot update order", err)
	}

	l.Info("admin_order_update_success", "order_id", o.OrderID, "status", o.Status.String())
	return c.JSON(http.StatusOK, o)
}
