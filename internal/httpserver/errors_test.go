package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/lapcraft/internal/service"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "validation", err: fmt.Errorf("price must be >= 0: %w", service.ErrValidation), wantCode: http.StatusBadRequest, wantMsg: "price must be >= 0"},
		{name: "not found", err: fmt.Errorf("product not found: %w", service.ErrNotFound), wantCode: http.StatusNotFound, wantMsg: "product not found"},
		{name: "conflict", err: fmt.Errorf("cannot delete category with 2 products: %w", service.ErrConflict), wantCode: http.StatusConflict, wantMsg: "cannot delete category with 2 products"},
		{name: "unauthorized", err: fmt.Errorf("invalid refresh token: %w", service.ErrUnauthorized), wantCode: http.StatusUnauthorized, wantMsg: "invalid refresh token"},
		{name: "forbidden", err: service.ErrForbidden, wantCode: http.StatusForbidden, wantMsg: "forbidden"},
		{name: "internal", err: errors.New("connection reset"), wantCode: http.StatusInternalServerError, wantMsg: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, msg := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
