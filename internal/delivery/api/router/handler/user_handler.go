// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/api/middleware"
	"storefront/internal/delivery/api/response"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	msgUserCreated       = "User created. Please check your email to verify your account."
	msgEmailVerified     = "Email verified successfully"
	msgPasswordResetSent = "Password reset email sent"
	msgPasswordResetDone = "Password reset successfully"
	msgUserDeleted       = "User deleted"
	msgMalformedBody     = "request body is not valid JSON"
)

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	AccountUC usecase.AccountUsecase
	UserUC    usecase.UserUsecase
	Logger    *slog.Logger
}

// UserHandler serves the /users routes.
type UserHandler struct {
	accountUC usecase.AccountUsecase
	userUC    usecase.UserUsecase
	logger    *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		accountUC: params.AccountUC,
		userUC:    params.UserUC,
		logger:    params.Logger,
	}
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest is the body of POST /users/request-password-reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required"`
}

// CompletePasswordResetRequest is the body of POST /users/reset-password/:token.
type CompletePasswordResetRequest struct {
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is the body of PUT /users/:id. Omitted fields stay unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitnil,max=100"`
	Email    *string `json:"email" validate:"omitnil"`
	Password *string `json:"password" validate:"omitnil"`
}

// Register handles POST /users.
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.accountUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusCreated, msgUserCreated)
}

// Login handles POST /users/login.
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.accountUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, map[string]any{
		"user":  output.User,
		"token": output.Token,
	})
}

// VerifyEmail handles GET /users/verify-email/:token.
func (h *UserHandler) VerifyEmail(c echo.Context) error {
	if err := h.accountUC.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, msgEmailVerified)
}

// RequestPasswordReset handles POST /users/request-password-reset.
func (h *UserHandler) RequestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accountUC.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, msgPasswordResetSent)
}

// CompletePasswordReset handles POST /users/reset-password/:token.
func (h *UserHandler) CompletePasswordReset(c echo.Context) error {
	var req CompletePasswordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.accountUC.CompletePasswordReset(c.Request().Context(), &usecase.CompletePasswordResetInput{
		Token:    c.Param("token"),
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, msgPasswordResetDone)
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	users, err := h.userUC.ListUsers(c.Request().Context(), caller)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, users)
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	caller, id, err := callerAndTarget(c)
	if err != nil {
		return err
	}

	user, err := h.userUC.GetUser(c.Request().Context(), caller, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, user)
}

// UpdateUser handles PUT /users/:id.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	caller, id, err := callerAndTarget(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userUC.UpdateUser(c.Request().Context(), caller, id, &usecase.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	caller, id, err := callerAndTarget(c)
	if err != nil {
		return err
	}

	if err := h.userUC.DeleteUser(c.Request().Context(), caller, id); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, msgUserDeleted)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(msgMalformedBody)
	}

	return c.Validate(req)
}

// callerAndTarget reads the authenticated caller and the :id path parameter.
// An id that is not a UUID cannot name an account and is reported as not found.
func callerAndTarget(c echo.Context) (usecase.Caller, uuid.UUID, error) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return usecase.Caller{}, uuid.Nil, domainerrors.ErrUnauthorized
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return usecase.Caller{}, uuid.Nil, domainerrors.ErrUserNotFound
	}

	return caller, id, nil
}
