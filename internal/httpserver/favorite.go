package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lapcraft/internal/service"
	"github.com/Skotchmaster/lapcraft/internal/transport"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
)

type FavoriteHTTP struct {
	Svc *service.FavoriteService
}

func (h *FavoriteHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite.list")

	userID, err := currentUser(c, l, "list_favorites_error")
	if err != nil {
		return err
	}
	entries, total, err := h.Svc.List(ctx, userID)
	if err != nil {
		return fail(l, "list_favorites_error", err)
	}

	out := make([]transport.FavoriteResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transport.FavoriteResponse{
			ID:        e.Favorite.ID,
			UserID:    e.Favorite.UserID,
			ProductID: e.Favorite.ProductID,
			Product:   e.Product,
		})
	}
	return c.JSON(http.StatusOK, transport.FavoritesResponse{Favorites: out, Total: total})
}

func (h *FavoriteHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite.add")

	userID, err := currentUser(c, l, "add_favorite_error")
	if err != nil {
		return err
	}
	productID, err := parseID(c, l, "add_favorite_error", "product_id")
	if err != nil {
		return err
	}
	fav, err := h.Svc.Add(ctx, userID, productID)
	if err != nil {
		return fail(l, "add_favorite_error", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "product added to favorites", "favorite_id": fav.ID})
}

func (h *FavoriteHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite.remove")

	userID, err := currentUser(c, l, "remove_favorite_error")
	if err != nil {
		return err
	}
	productID, err := parseID(c, l, "remove_favorite_error", "product_id")
	if err != nil {
		return err
	}
	if err := h.Svc.Remove(ctx, userID, productID); err != nil {
		return fail(l, "remove_favorite_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "product removed from favorites"})
}

func (h *FavoriteHTTP) Check(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite.check")

	userID, err := currentUser(c, l, "check_favorite_error")
	if err != nil {
		return err
	}
	productID, err := parseID(c, l, "check_favorite_error", "product_id")
	if err != nil {
		return err
	}
	ok, err := h.Svc.IsFavorite(ctx, userID, productID)
	if err != nil {
		return fail(l, "check_favorite_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_favorite": ok})
}

func (h *FavoriteHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite.clear")

	userID, err := currentUser(c, l, "clear_favorites_error")
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(l, "clear_favorites_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
