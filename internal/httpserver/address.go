package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/address"
	"github.com/pay2me/storefront/internal/logging"
)

type AddressHTTP struct {
	Svc *address.Service
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "address_list_error", http.StatusUnauthorized, "unauthorized", err)
	}
	items, err := h.Svc.List(ctx, uid)
	if err != nil {
		return fail(l, "address_list_error", http.StatusInternalServerError, "cannot list addresses", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *AddressHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "address_create_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var req address.CreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "address_create_error", http.StatusBadRequest, "invalid body", err)
	}

	a, err := h.Svc.Create(ctx, uid, req)
	if err != nil {
		if errors.Is(err, address.ErrValidation) {
			return fail(l, "address_create_error", http.StatusBadRequest, err.Error(), err)
		}
		return fail(l, "address_create_error", http.StatusInternalServerError, "cannot save address", err)
	}
	l.Info("address_create_success", "address_id", a.ID)
	return c.JSON(http.StatusCreated, a)
}

func (h *AddressHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "address_update_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "address_update_error", http.StatusBadRequest, "invalid address id", err)
	}
	var req address.CreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "address_update_error", http.StatusBadRequest, "invalid body", err)
	}

	a, err := h.Svc.Update(ctx, uid, id, req)
	switch {
	case errors.Is(err, address.ErrNotFound):
		return fail(l, "address_update_error", http.StatusNotFound, "address not found", err)
	case errors.Is(err, address.ErrValidation):
		return fail(l, "address_update_error", http.StatusBadRequest, err.Error(), err)
	case err != nil:
		return fail(l, "address_update_error", http.StatusInternalServerError, "cannot save address", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "address_delete_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "address_delete_error", http.StatusBadRequest, "invalid address id", err)
	}
	if err := h.Svc.Delete(ctx, uid, id); err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return fail(l, "address_delete_error", http.StatusNotFound, "address not found", err)
		}
		return fail(l, "address_delete_error", http.StatusInternalServerError, "cannot delete address", err)
	}
	return c.NoContent(http.StatusNoContent)
}
