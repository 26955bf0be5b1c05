package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lapcraft/internal/service"
	"github.com/Skotchmaster/lapcraft/internal/transport"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func boolQuery(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}

func (h *CategoryHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	if boolQuery(c, "include_children") {
		nodes, err := h.Svc.ListWithChildren(ctx)
		if err != nil {
			return fail(l, "list_categories_error", err)
		}
		return c.JSON(http.StatusOK, nodes)
	}
	cats, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoryHTTP) Tree(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.tree")

	tree, err := h.Svc.Tree(ctx)
	if err != nil {
		return fail(l, "category_tree_error", err)
	}
	return c.JSON(http.StatusOK, tree)
}

func (h *CategoryHTTP) Roots(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.roots")

	cats, err := h.Svc.Roots(ctx)
	if err != nil {
		return fail(l, "root_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoryHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	id, err := parseID(c, l, "get_category_error", "id")
	if err != nil {
		return err
	}
	if boolQuery(c, "include_children") {
		node, err := h.Svc.GetWithChildren(ctx, id)
		if err != nil {
			return fail(l, "get_category_error", err)
		}
		return c.JSON(http.StatusOK, node)
	}
	cat, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_category_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) Children(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.children")

	id, err := parseID(c, l, "category_children_error", "id")
	if err != nil {
		return err
	}
	cats, err := h.Svc.Children(ctx, id)
	if err != nil {
		return fail(l, "category_children_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoryHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.products")

	id, err := parseID(c, l, "category_products_error", "id")
	if err != nil {
		return err
	}
	items, err := h.Svc.Products(ctx, id, boolQuery(c, "include_subcategories"))
	if err != nil {
		return fail(l, "category_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CategoryHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.search")

	cats, err := h.Svc.Search(ctx, c.Param("term"))
	if err != nil {
		return fail(l, "search_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoryHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CreateCategoryRequest
	if err := bindAndValidate(c, l, "create_category_error", &req); err != nil {
		return err
	}
	cat, err := h.Svc.Create(ctx, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Icon:        req.Icon,
		Color:       req.Color,
	})
	if err != nil {
		return fail(l, "create_category_error", err)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c, l, "update_category_error", "id")
	if err != nil {
		return err
	}
	var req transport.UpdateCategoryRequest
	if err := bindAndValidate(c, l, "update_category_error", &req); err != nil {
		return err
	}
	cat, err := h.Svc.Update(ctx, id, service.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		ParentSet:   req.ParentID.Set,
		ParentID:    req.ParentID.ID,
	})
	if err != nil {
		return fail(l, "update_category_error", err)
	}

	l.Info("update_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, l, "delete_category_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_category_error", err)
	}

	l.Info("delete_category_success", "category_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "category deleted"})
}

func (h *CategoryHTTP) UpdateCounters(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update_counters")

	id, err := parseID(c, l, "update_counters_error", "id")
	if err != nil {
		return err
	}
	cat, err := h.Svc.RecomputeCounters(ctx, id)
	if err != nil {
		return fail(l, "update_counters_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) UpdateAllCounters(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update_all_counters")

	n, err := h.Svc.RecomputeAll(ctx)
	if err != nil {
		return fail(l, "update_all_counters_error", err)
	}

	l.Info("update_all_counters_success", "updated", n)
	return c.JSON(http.StatusOK, echo.Map{"message": "counters updated", "updated": n})
}
