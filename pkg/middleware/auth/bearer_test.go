package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lapcraft/pkg/tokens"
)

func newTestMiddleware(users map[uuid.UUID]*Principal) *BearerMiddleware {
	iss := tokens.NewIssuer([]byte("test-jwt-secret"), time.Minute)
	return NewBearerMiddleware(iss, func(_ context.Context, id uuid.UUID) (*Principal, error) {
		if p, ok := users[id]; ok {
			return p, nil
		}
		return nil, errors.New("user not found")
	})
}

func issue(t *testing.T, m *BearerMiddleware, id uuid.UUID) string {
	t.Helper()
	tok, _, err := m.Tokens.Issue(id.String(), "u@example.com", "U")
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Principal
	err := mw(func(c echo.Context) error {
		seen, _ = CurrentPrincipal(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	userID, ghostID := uuid.New(), uuid.New()
	m := newTestMiddleware(map[uuid.UUID]*Principal{userID: {ID: userID}})

	rec, p, err := run(t, m.RequireAuth, "Bearer "+issue(t, m, userID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, p)
	assert.Equal(t, userID, p.ID)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer nope"},
		{name: "deleted user", header: "Bearer " + issue(t, m, ghostID)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := run(t, m.RequireAuth, tt.header)
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		})
	}
}

func TestRequireSuperuser(t *testing.T) {
	t.Parallel()

	adminID, userID := uuid.New(), uuid.New()
	m := newTestMiddleware(map[uuid.UUID]*Principal{
		adminID: {ID: adminID, IsSuperuser: true},
		userID:  {ID: userID},
	})

	_, _, err := run(t, m.RequireSuperuser, "Bearer "+issue(t, m, adminID))
	require.NoError(t, err)

	_, _, err = run(t, m.RequireSuperuser, "Bearer "+issue(t, m, userID))
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, _, err = run(t, m.RequireSuperuser, "")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	m := newTestMiddleware(map[uuid.UUID]*Principal{userID: {ID: userID}})

	_, p, err := run(t, m.OptionalAuth, "")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, p, err = run(t, m.OptionalAuth, "Bearer broken")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, p, err = run(t, m.OptionalAuth, "bearer "+issue(t, m, userID))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, userID, p.ID)
}
