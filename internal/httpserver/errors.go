package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lapcraft/internal/service"
	authmw "github.com/Skotchmaster/lapcraft/pkg/middleware/auth"
)

var sentinels = []struct {
	err  error
	code int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
}

// classify maps a service error to a status code and the message shown to the caller.
// Only the text in front of the sentinel is exposed.
func classify(err error) (int, string) {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			msg := strings.TrimSuffix(err.Error(), ": "+s.err.Error())
			return s.code, msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

func fail(l *slog.Logger, event string, err error) error {
	code, msg := classify(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg)
	}
	return echo.NewHTTPError(code, msg)
}

func parseID(c echo.Context, l *slog.Logger, event, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		l.Warn(event, "status", 400, "reason", name+" is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is not a uuid")
	}
	return id, nil
}

func currentUser(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	id, err := authmw.UserID(c)
	if err != nil {
		l.Warn(event, "status", 401, "reason", "no authenticated user")
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, l *slog.Logger, event string, req any) error {
	if err := c.Bind(req); err != nil {
		l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		msg := validationMessage(err)
		l.Warn(event, "status", 400, "reason", msg)
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return nil
}
