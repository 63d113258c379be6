package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/search"
	"github.com/pay2me/storefront/internal/util"
)

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []search.Document, error)
}

type CatalogHTTP struct {
	Svc    *catalog.CatalogService
	Search Searcher
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "get_product_failed", http.StatusBadRequest, "invalid product id", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fail(l, "get_product_failed", http.StatusNotFound, "product not found", err)
		}
		return fail(l, "get_product_failed", http.StatusInternalServerError, "cannot get product", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, parseIntDefault(c.QueryParam("size"), defaultPageSize))

	var category *uint
	if raw := c.QueryParam("category"); raw != "" {
		v := uint(parseIntDefault(raw, 0))
		if v == 0 {
			return fail(l, "get_products_error", http.StatusBadRequest, "invalid category", nil)
		}
		category = &v
	}

	total, items, err := h.Svc.ListProducts(ctx, category, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", http.StatusInternalServerError, "cannot list products", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items, "meta": util.Meta(page, limit, total)})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return fail(l, "search_error", http.StatusBadRequest, "q is required", nil)
	}
	page := parseIntDefault(c.QueryParam("page"), 1)
	from, size := util.Calculate(page, parseIntDefault(c.QueryParam("size"), defaultPageSize))

	total, docs, err := h.Search.Search(ctx, q, from, size)
	if err != nil {
		if errors.Is(err, search.ErrDisabled) {
			return fail(l, "search_error", http.StatusServiceUnavailable, "search is unavailable", err)
		}
		return fail(l, "search_error", http.StatusBadGateway, "search failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": docs, "meta": util.Meta(page, size, total)})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req catalog.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "product_create_error", http.StatusBadRequest, "invalid body", err)
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		if errors.Is(err, catalog.ErrValidation) {
			return fail(l, "product_create_error", http.StatusBadRequest, err.Error(), err)
		}
		return fail(l, "product_create_error", http.StatusInternalServerError, "cannot create product", err)
	}

	l.Info("product_create_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "product_patch_error", http.StatusBadRequest, "invalid product id", err)
	}
	var req catalog.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "product_patch_error", http.StatusBadRequest, "invalid body", err)
	}

	prod, err := h.Svc.PatchProduct(ctx, id, req)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return fail(l, "product_patch_error", http.StatusNotFound, "product not found", err)
	case errors.Is(err, catalog.ErrValidation):
		return fail(l, "product_patch_error", http.StatusBadRequest, err.Error(), err)
	case err != nil:
		return fail(l, "product_patch_error", http.StatusInternalServerError, "cannot update product", err)
	}

	l.Info("product_patch_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, prod)
}
