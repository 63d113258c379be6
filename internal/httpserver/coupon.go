package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/coupon"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/util"
)

type CouponHTTP struct {
	Svc *coupon.Service
}

func (h *CouponHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list")

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, parseIntDefault(c.QueryParam("size"), defaultPageSize))
	total, items, err := h.Svc.List(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "coupon_list_error", http.StatusInternalServerError, "cannot list coupons", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items, "meta": util.Meta(page, limit, total)})
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	var req coupon.CreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "coupon_create_error", http.StatusBadRequest, "invalid body", err)
	}
	cp, err := h.Svc.Create(ctx, req)
	switch {
	case errors.Is(err, coupon.ErrValidation):
		return fail(l, "coupon_create_error", http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, coupon.ErrConflict):
		return fail(l, "coupon_create_error", http.StatusConflict, err.Error(), err)
	case err != nil:
		return fail(l, "coupon_create_error", http.StatusInternalServerError, "cannot create coupon", err)
	}
	l.Info("coupon_create_success", "code", cp.Code)
	return c.JSON(http.StatusCreated, cp)
}

func (h *CouponHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.update")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "coupon_update_error", http.StatusBadRequest, "invalid coupon id", err)
	}
	var req coupon.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "coupon_update_error", http.StatusBadRequest, "invalid body", err)
	}
	cp, err := h.Svc.Update(ctx, id, req)
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		return fail(l, "coupon_update_error", http.StatusNotFound, "coupon not found", err)
	case errors.Is(err, coupon.ErrValidation):
		return fail(l, "coupon_update_error", http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, coupon.ErrConflict):
		return fail(l, "coupon_update_error", http.StatusConflict, err.Error(), err)
	case err != nil:
		return fail(l, "coupon_update_error", http.StatusInternalServerError, "cannot update coupon", err)
	}
	l.Info("coupon_update_success", "code", cp.Code)
	return c.JSON(http.StatusOK, cp)
}

func (h *CouponHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.delete")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "coupon_delete_error", http.StatusBadRequest, "invalid coupon id", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return fail(l, "coupon_delete_error", http.StatusNotFound, "coupon not found", err)
		}
		return fail(l, "coupon_delete_error", http.StatusInternalServerError, "cannot delete coupon", err)
	}
	return c.NoContent(http.StatusNoContent)
}
