package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	mockSvc "storefront/internal/mocks/service"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_Authenticate(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name    string
		header  string
		setup   func(s *mockSvc.MockSessionIssuer)
		wantErr error
	}{
		{
			name:    "missing header",
			setup:   func(s *mockSvc.MockSessionIssuer) {},
			wantErr: domainerrors.ErrUnauthorized,
		},
		{
			name:    "wrong scheme",
			header:  "Basic abc",
			setup:   func(s *mockSvc.MockSessionIssuer) {},
			wantErr: domainerrors.ErrSessionInvalid,
		},
		{
			name:   "expired token",
			header: "Bearer expired",
			setup: func(s *mockSvc.MockSessionIssuer) {
				s.EXPECT().Verify("expired").Return(nil, domainerrors.ErrSessionExpired).Once()
			},
			wantErr: domainerrors.ErrSessionExpired,
		},
		{
			name:   "valid token",
			header: "bearer good",
			setup: func(s *mockSvc.MockSessionIssuer) {
				s.EXPECT().Verify("good").Return(&service.SessionClaims{
					AccountID: accountID,
					Roles:     []string{"user"},
				}, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := mockSvc.NewMockSessionIssuer(t)
			tt.setup(sessions)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/users/x", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			called := false
			err := NewAuthMiddleware(sessions).Authenticate(func(c echo.Context) error {
				called = true

				return nil
			})(c)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, called)

				return
			}

			require.NoError(t, err)
			assert.True(t, called)
			caller, ok := GetCaller(c)
			require.True(t, ok)
			assert.Equal(t, accountID, caller.AccountID)
			assert.False(t, caller.IsAdmin())
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	m := NewAuthMiddleware(mockSvc.NewMockSessionIssuer(t))
	next := func(c echo.Context) error { return nil }
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users", nil), httptest.NewRecorder())
	require.ErrorIs(t, m.RequireRole(entity.RoleAdmin)(next)(c), domainerrors.ErrUnauthorized)

	c.Set(callerKey, usecase.Caller{AccountID: uuid.New(), Roles: entity.Roles{entity.RoleUser}})
	require.ErrorIs(t, m.RequireRole(entity.RoleAdmin)(next)(c), domainerrors.ErrForbidden)

	c.Set(callerKey, usecase.Caller{AccountID: uuid.New(), Roles: entity.Roles{entity.RoleAdmin}})
	require.NoError(t, m.RequireRole(entity.RoleAdmin)(next)(c))
}
