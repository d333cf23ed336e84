package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/config"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		path     string
		err      error
		contains []string
	}{
		{name: "disabled outside debug", debug: false, path: "/users"},
		{name: "health is skipped", debug: true, path: "/health"},
		{
			name:     "app error status",
			debug:    true,
			path:     "/users/login",
			err:      errors.WithStack(domainerrors.ErrInvalidCredentials),
			contains: []string{"level=WARN", "status=401"},
		},
		{
			name:     "unknown error",
			debug:    true,
			path:     "/users",
			err:      errors.New("boom"),
			contains: []string{"level=ERROR", "status=500"},
		},
		{
			name:     "success",
			debug:    true,
			path:     "/users",
			contains: []string{"level=INFO", "status=200", "uri=/users"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{}
			cfg.Env.Debug = tt.debug
			m := NewLoggerMiddleware(slog.New(slog.NewTextHandler(&buf, nil)), cfg)

			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, tt.path, nil), httptest.NewRecorder())
			err := m.Handle(func(c echo.Context) error {
				if tt.err != nil {
					return tt.err
				}

				return c.NoContent(http.StatusOK)
			})(c)

			assert.ErrorIs(t, err, tt.err)
			if len(tt.contains) == 0 {
				assert.Empty(t, buf.String())

				return
			}
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
