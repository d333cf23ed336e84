package middleware

import (
	"strings"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const callerKey = "caller"

// AuthMiddleware authenticates bearer session tokens and enforces roles.
type AuthMiddleware struct {
	sessions service.SessionIssuer
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(sessions service.SessionIssuer) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate verifies the Authorization bearer token and stores the caller on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthorized
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return domainerrors.ErrSessionInvalid
		}

		claims, err := m.sessions.Verify(strings.TrimSpace(token))
		if err != nil {
			return err
		}

		c.Set(callerKey, usecase.Caller{
			AccountID: claims.AccountID,
			Roles:     entity.RolesFromStrings(claims.Roles),
		})

		return next(c)
	}
}

// RequireRole rejects callers without the role. It must be used after Authenticate.
func (m *AuthMiddleware) RequireRole(role entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := GetCaller(c)
			if !ok {
				return domainerrors.ErrUnauthorized
			}

			if !caller.Roles.Contains(role) {
				return domainerrors.ErrForbidden
			}

			return next(c)
		}
	}
}

// GetCaller returns the identity stored by Authenticate.
func GetCaller(c echo.Context) (usecase.Caller, bool) {
	caller, ok := c.Get(callerKey).(usecase.Caller)

	return caller, ok
}
