package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lapcraft/pkg/logging"
	"github.com/Skotchmaster/lapcraft/pkg/tokens"
)

const (
	ctxUserKey = "user"
	ctxIDKey   = "user_id"
)

var ErrNoPrincipal = errors.New("unauthorized")

// Principal is the authenticated caller as resolved from storage.
type Principal struct {
	ID          uuid.UUID
	Email       string
	Name        string
	IsSuperuser bool
}

// PrincipalLoader resolves the token subject. It must return an error when the user no longer exists.
type PrincipalLoader func(ctx context.Context, id uuid.UUID) (*Principal, error)

type BearerMiddleware struct {
	Tokens *tokens.Issuer
	Load   PrincipalLoader
}

func NewBearerMiddleware(issuer *tokens.Issuer, load PrincipalLoader) *BearerMiddleware {
	return &BearerMiddleware{Tokens: issuer, Load: load}
}

func (m *BearerMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := m.authenticate(c)
		if err != nil {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "error", err)
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication credentials")
		}
		setUserContext(c, p)
		return next(c)
	}
}

func (m *BearerMiddleware) RequireSuperuser(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		p, _ := CurrentPrincipal(c)
		if p == nil || !p.IsSuperuser {
			logging.FromContext(c.Request().Context()).Warn("auth_forbidden", "status", 403, "user_id", c.Get(ctxIDKey))
			return echo.NewHTTPError(http.StatusForbidden, "not enough permissions")
		}
		return next(c)
	})
}

// OptionalAuth attaches the caller when a valid token is present and never rejects the request.
func (m *BearerMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if bearerToken(c) != "" {
			if p, err := m.authenticate(c); err == nil {
				setUserContext(c, p)
			}
		}
		return next(c)
	}
}

func (m *BearerMiddleware) authenticate(c echo.Context) (*Principal, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, errors.New("missing bearer token")
	}
	claims, err := m.Tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, tokens.ErrInvalidToken
	}
	if m.Load == nil {
		return &Principal{ID: id, Email: claims.Email, Name: claims.Name}, nil
	}
	return m.Load(c.Request().Context(), id)
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func setUserContext(c echo.Context, p *Principal) {
	c.Set(ctxUserKey, p)
	c.Set(ctxIDKey, p.ID.String())
}

func CurrentPrincipal(c echo.Context) (*Principal, error) {
	p, ok := c.Get(ctxUserKey).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}

func UserID(c echo.Context) (uuid.UUID, error) {
	p, err := CurrentPrincipal(c)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}
