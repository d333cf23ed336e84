// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"storefront/internal/delivery/api/middleware"
	"storefront/internal/delivery/api/router/handler"
	"storefront/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	users := e.Group("/users")
	{
		// Public lifecycle routes
		users.POST("", r.userHandler.Register)
		users.POST("/login", r.userHandler.Login)
		users.GET("/verify-email/:token", r.userHandler.VerifyEmail)
		users.POST("/request-password-reset", r.userHandler.RequestPasswordReset)
		users.POST("/reset-password/:token", r.userHandler.CompletePasswordReset)

		// Authenticated routes
		users.GET("", r.userHandler.ListUsers, r.authMiddleware.Authenticate, r.authMiddleware.RequireRole(entity.RoleAdmin))
		users.GET("/:id", r.userHandler.GetUser, r.authMiddleware.Authenticate)
		users.PUT("/:id", r.userHandler.UpdateUser, r.authMiddleware.Authenticate)
		users.DELETE("/:id", r.userHandler.DeleteUser, r.authMiddleware.Authenticate)
	}
}
