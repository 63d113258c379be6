package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/review"
	"github.com/pay2me/storefront/internal/util"
)

type ReviewHTTP struct {
	Svc *review.Service
}

func (h *ReviewHTTP) ForProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.for_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "review_list_error", http.StatusBadRequest, "invalid product id", err)
	}
	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, parseIntDefault(c.QueryParam("size"), defaultPageSize))

	sum, err := h.Svc.ForProduct(ctx, id, offset, limit)
	if err != nil {
		return fail(l, "review_list_error", http.StatusInternalServerError, "cannot load reviews", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":    sum.Reviews,
		"average": sum.Average,
		"meta":    util.Meta(page, limit, sum.Count),
	})
}

func (h *ReviewHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.submit")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "review_submit_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "review_submit_error", http.StatusBadRequest, "invalid product id", err)
	}
	var req review.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "review_submit_error", http.StatusBadRequest, "invalid body", err)
	}

	rv, err := h.Svc.Submit(ctx, uid, id, req)
	switch {
	case errors.Is(err, review.ErrValidation):
		return fail(l, "review_submit_error", http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, review.ErrNotFound):
		return fail(l, "review_submit_error", http.StatusNotFound, "product not found", err)
	case err != nil:
		return fail(l, "review_submit_error", http.StatusInternalServerError, "cannot save review", err)
	}
	l.Info("review_submit_success", "product_id", id, "rating", rv.Rating)
	return c.JSON(http.StatusOK, rv)
}
