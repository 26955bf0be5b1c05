package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lapcraft/internal/service"
	"github.com/Skotchmaster/lapcraft/internal/transport"
	"github.com/Skotchmaster/lapcraft/internal/util"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
	authmw "github.com/Skotchmaster/lapcraft/pkg/middleware/auth"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

// fieldKinds lists the product columns that may be matched directly from the query string.
var fieldKinds = map[string]string{
	"article":        "int",
	"stock_quantity": "int",
	"price":          "float",
	"description":    "text",
	"category_id":    "uuid",
}

func parseFloatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseScalar(kind, raw string) (any, error) {
	switch kind {
	case "int":
		return strconv.ParseInt(raw, 10, 64)
	case "float":
		return strconv.ParseFloat(raw, 64)
	case "uuid":
		return uuid.Parse(raw)
	default:
		return raw, nil
	}
}

// fieldFilters turns extra query params into column matches. A comma separated value on a
// non-text column means membership.
func fieldFilters(c echo.Context) (map[string]any, error) {
	out := make(map[string]any)
	for name, kind := range fieldKinds {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		if kind != "text" && strings.Contains(raw, ",") {
			var list []any
			for _, part := range strings.Split(raw, ",") {
				v, err := parseScalar(kind, strings.TrimSpace(part))
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			out[name] = list
			continue
		}
		v, err := parseScalar(kind, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page, count, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("count"))
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	minPrice, err := parseFloatParam(c.QueryParam("min_price"))
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "min_price is not a number")
		return echo.NewHTTPError(http.StatusBadRequest, "min_price is not a number")
	}
	maxPrice, err := parseFloatParam(c.QueryParam("max_price"))
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "max_price is not a number")
		return echo.NewHTTPError(http.StatusBadRequest, "max_price is not a number")
	}
	q := service.ListQuery{
		Page:     page,
		Count:    count,
		Name:     c.QueryParam("name"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
		Order:    c.QueryParam("order"),
	}
	if raw := c.QueryParam("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			l.Warn("get_products_error", "status", 400, "reason", "category is not a uuid")
			return echo.NewHTTPError(http.StatusBadRequest, "category is not a uuid")
		}
		q.CategoryID = &id
	}
	if q.Fields, err = fieldFilters(c); err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "invalid field filter", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid field filter")
	}

	res, err := h.Svc.List(ctx, q)
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	l.Info("get_products_success", "total", res.Total)
	return c.JSON(http.StatusOK, transport.ProductListResponse{
		Products: res.Products,
		Page:     res.Page,
		Count:    res.Count,
		Total:    res.Total,
	})
}

func (h *ProductHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, count, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("count"))
	if err != nil {
		l.Warn("search_products_error", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, count)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProductListResponse{
		Products: res.Products,
		Page:     res.Page,
		Count:    res.Count,
		Total:    res.Total,
	})
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c, l, "get_product_error", "id")
	if err != nil {
		return err
	}
	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	if userID, err := authmw.UserID(c); err == nil {
		l = l.With("user_id", userID)
	}
	l.Debug("get_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) GetByArticle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_by_article")

	article, err := strconv.ParseInt(c.Param("article"), 10, 64)
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "article is not a number")
		return echo.NewHTTPError(http.StatusBadRequest, "article is not a number")
	}
	p, err := h.Svc.GetByArticle(ctx, article)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bindAndValidate(c, l, "create_product_error", &req); err != nil {
		return err
	}
	p, err := h.Svc.Create(ctx, service.ProductInput{
		Article:       req.Article,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		ImageURLs:     req.ImageURLs,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID, "article", p.Article)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c, l, "update_product_error", "id")
	if err != nil {
		return err
	}
	var req transport.UpdateProductRequest
	if err := bindAndValidate(c, l, "update_product_error", &req); err != nil {
		return err
	}
	p, err := h.Svc.Update(ctx, id, service.ProductPatch{
		Article:       req.Article,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		CategorySet:   req.CategoryID.Set,
		CategoryID:    req.CategoryID.ID,
		ImageURLs:     req.ImageURLs,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, l, "delete_product_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "product deleted"})
}
