package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/contact"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/transport"
	"github.com/pay2me/storefront/internal/util"
)

type ContactHTTP struct {
	Svc *contact.Service
}

func (h *ContactHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.submit")

	var req contact.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "contact_submit_error", http.StatusBadRequest, "invalid body", err)
	}
	m, err := h.Svc.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, contact.ErrValidation) {
			return fail(l, "contact_submit_error", http.StatusBadRequest, err.Error(), err)
		}
		return fail(l, "contact_submit_error", http.StatusInternalServerError, "cannot send message", err)
	}
	l.Info("contact_submit_success", "contact_id", m.ID)
	return c.JSON(http.StatusCreated, map[string]any{"id": m.ID})
}

func (h *ContactHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.list")

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, parseIntDefault(c.QueryParam("size"), defaultPageSize))
	total, items, err := h.Svc.List(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "contact_list_error", http.StatusInternalServerError, "cannot list messages", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items, "meta": util.Meta(page, limit, total)})
}

func (h *ContactHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.get")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "contact_get_error", http.StatusBadRequest, "invalid message id", err)
	}
	m, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			return fail(l, "contact_get_error", http.StatusNotFound, "message not found", err)
		}
		return fail(l, "contact_get_error", http.StatusInternalServerError, "cannot load message", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *ContactHTTP) Reply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.reply")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "contact_reply_error", http.StatusBadRequest, "invalid message id", err)
	}
	var req transport.ReplyRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "contact_reply_error", http.StatusBadRequest, "invalid body", err)
	}

	m, err := h.Svc.Reply(ctx, id, req.Reply)
	switch {
	case errors.Is(err, contact.ErrValidation):
		return fail(l, "contact_reply_error", http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, contact.ErrNotFound):
		return fail(l, "contact_reply_error", http.StatusNotFound, "message not found", err)
	case errors.Is(err, contact.ErrConflict):
		return fail(l, "contact_reply_error", http.StatusConflict, err.Error(), err)
	case err != nil:
		return fail(l, "contact_reply_error", http.StatusInternalServerError, "cannot send reply", err)
	}
	return c.JSON(http.StatusOK, m)
}
