package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/pkg/util"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/service"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/transport"
)

const maxImageSize = 5 << 20

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func fail(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "reason", err.Error(), "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "product not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func parseID(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", 400, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, l, "get_product_failed")
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, transport.FromProduct(product))
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	filter := repo.Filter{Category: c.QueryParam("category"), Query: c.QueryParam("q")}

	total, items, err := h.Svc.ListProducts(ctx, filter, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.FromProducts(items),
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.FromProducts(items),
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *CatalogHTTP) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.OptionsResponse{
		Milks:    pricing.Milks(),
		Toppings: pricing.Toppings(),
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, transport.FromProduct(created))
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := parseID(c, l, "product_patch_error")
	if err != nil {
		return err
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.FromProduct(prod))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, l, "product_delete_error")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.adjust_stock")

	id, err := parseID(c, l, "adjust_stock_error")
	if err != nil {
		return err
	}

	var req transport.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("adjust_stock_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return fail(l, "adjust_stock_error", err)
	}

	l.Info("adjust_stock_success", "product_id", id, "delta", req.Delta, "stock", prod.Stock)
	return c.JSON(http.StatusOK, transport.FromProduct(prod))
}

func (h *CatalogHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.upload_image")

	id, err := parseID(c, l, "upload_image_error")
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		l.Warn("upload_image_error", "status", 400, "reason", "image file required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image file required")
	}
	if fh.Size > maxImageSize {
		l.Warn("upload_image_error", "status", 400, "reason", "image too large", "size", fh.Size)
		return echo.NewHTTPError(http.StatusBadRequest, "image too large")
	}

	f, err := fh.Open()
	if err != nil {
		return fail(l, "upload_image_error", err)
	}
	defer f.Close()

	prod, err := h.Svc.UploadImage(ctx, id, fh.Header.Get(echo.HeaderContentType), f, fh.Size)
	if err != nil {
		return fail(l, "upload_image_error", err)
	}

	l.Info("upload_image_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.FromProduct(prod))
}
