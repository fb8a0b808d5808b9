// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nordmark-digital/portal/internal/handler"
	"github.com/nordmark-digital/portal/internal/middleware"
	"github.com/nordmark-digital/portal/internal/model"
	"github.com/nordmark-digital/portal/internal/repository"
)

// RegisterRoutes registers routes that need no authentication or
// throttling. Currently only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the passwordless login endpoints. The public POST
// endpoints additionally pass through the best-effort IP throttle;
// /auth/me requires a live session; /auth/logout is lenient so a stale
// cookie can always be cleared.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessions repository.SessionStore, throttle echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/send-code", a.SendCode, throttle)
	g.POST("/verify-code", a.VerifyCode, throttle)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.SessionAuth(sessions))
}

// RegisterContact wires the public contact form behind the IP throttle.
func RegisterContact(e *echo.Echo, h *handler.ContactHandler, throttle echo.MiddlewareFunc) {
	e.POST("/contact", h.Contact, throttle)
}

// RegisterAdmin wires user management behind session auth plus the
// admin role gate.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, sessions repository.SessionStore) {
	g := e.Group("/admin", middleware.SessionAuth(sessions), middleware.RequireRole(model.RoleAdmin))
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.DELETE("/users/:id", h.DeleteUser)
}
