package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/wishlist"
)

type WishlistHTTP struct {
	Svc *wishlist.Service
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "wishlist_list_error", http.StatusUnauthorized, "unauthorized", err)
	}
	items, err := h.Svc.List(ctx, uid)
	if err != nil {
		return fail(l, "wishlist_list_error", http.StatusInternalServerError, "cannot load wishlist", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "wishlist_add_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "wishlist_add_error", http.StatusBadRequest, "invalid product id", err)
	}

	it, err := h.Svc.Add(ctx, uid, id)
	switch {
	case errors.Is(err, wishlist.ErrNotFound):
		return fail(l, "wishlist_add_error", http.StatusNotFound, "product not found", err)
	case errors.Is(err, wishlist.ErrConflict):
		return fail(l, "wishlist_add_error", http.StatusConflict, err.Error(), err)
	case err != nil:
		return fail(l, "wishlist_add_error", http.StatusInternalServerError, "cannot update wishlist", err)
	}
	l.Info("wishlist_add_success", "product_id", id)
	return c.JSON(http.StatusCreated, it)
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "wishlist_remove_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "wishlist_remove_error", http.StatusBadRequest, "invalid product id", err)
	}
	if err := h.Svc.Remove(ctx, uid, id); err != nil {
		if errors.Is(err, wishlist.ErrNotFound) {
			return fail(l, "wishlist_remove_error", http.StatusNotFound, "product is not in your wishlist", err)
		}
		return fail(l, "wishlist_remove_error", http.StatusInternalServerError, "cannot update wishlist", err)
	}
	return c.NoContent(http.StatusNoContent)
}
