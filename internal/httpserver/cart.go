package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lapcraft/internal/service"
	"github.com/Skotchmaster/lapcraft/internal/transport"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(c, l, "get_cart_error")
	if err != nil {
		return err
	}
	view, err := h.Svc.Cart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.CartResponse{
		Items:      transport.NewCartLines(view.Lines),
		Total:      view.Total,
		ItemsCount: view.ItemsCount,
	})
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c, l, "add_to_cart_error")
	if err != nil {
		return err
	}
	var req transport.AddCartItemRequest
	if err := bindAndValidate(c, l, "add_to_cart_error", &req); err != nil {
		return err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.Svc.Add(ctx, userID, req.ProductID, quantity)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, echo.Map{"message": "product added to cart", "cart_item_id": item.ID})
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := currentUser(c, l, "update_cart_error")
	if err != nil {
		return err
	}
	productID, err := parseID(c, l, "update_cart_error", "product_id")
	if err != nil {
		return err
	}
	var req transport.UpdateCartItemRequest
	if err := bindAndValidate(c, l, "update_cart_error", &req); err != nil {
		return err
	}
	if err := h.Svc.UpdateQuantity(ctx, userID, productID, req.Quantity); err != nil {
		return fail(l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "quantity updated"})
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := currentUser(c, l, "remove_from_cart_error")
	if err != nil {
		return err
	}
	productID, err := parseID(c, l, "remove_from_cart_error", "product_id")
	if err != nil {
		return err
	}
	if err := h.Svc.Remove(ctx, userID, productID); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "product removed from cart"})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUser(c, l, "clear_cart_error")
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.summary")

	userID, err := currentUser(c, l, "cart_summary_error")
	if err != nil {
		return err
	}
	total, items, err := h.Svc.Summary(ctx, userID)
	if err != nil {
		return fail(l, "cart_summary_error", err)
	}
	return c.JSON(http.StatusOK, transport.CartSummaryResponse{TotalPrice: total, ItemsCount: items})
}
