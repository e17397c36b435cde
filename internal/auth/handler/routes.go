package handler

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the auth surface. Login and refresh share a tight
// per-IP rate limit; logout always succeeds so it carries no guards.
func RegisterRoutes(app *fiber.App, h *AuthHandler, loginLimiter *RateLimiter) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/login", loginLimiter.Middleware(), h.Login)
	auth.Post("/refresh", loginLimiter.Middleware(), h.Refresh)
	auth.Post("/logout", h.Logout)
	auth.Get("/csrf-token", h.CSRFToken)
	auth.Get("/me", h.RequireAuth(), h.Me)
}
