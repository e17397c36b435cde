package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

const authContextKey = "auth_context"

// AuthContextFrom pulls the authenticated principal out of the request
// locals. Nil when the request did not pass RequireAuth.
func AuthContextFrom(c *fiber.Ctx) *domain.AuthContext {
	authCtx, _ := c.Locals(authContextKey).(*domain.AuthContext)
	return authCtx
}

// RequireAuth verifies the bearer token and stores the authorization context
// in the request locals for downstream handlers.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}
		rawToken := strings.TrimPrefix(header, "Bearer ")

		authCtx, err := h.authService.Authenticate(c.Context(), rawToken, c.IP(), string(c.Request().Header.UserAgent()))
		if err != nil {
			switch {
			case errors.Is(err, autherror.ErrTokenExpired):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": autherror.ErrTokenExpired.Error(),
				})
			case errors.Is(err, autherror.ErrAccountLocked):
				return c.Status(fiber.StatusLocked).JSON(fiber.Map{
					"error": autherror.ErrAccountLocked.Error(),
				})
			case errors.Is(err, autherror.ErrAccountInactive):
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": autherror.ErrAccountInactive.Error(),
				})
			default:
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": autherror.ErrInvalidToken.Error(),
				})
			}
		}

		c.Locals(authContextKey, authCtx)
		return c.Next()
	}
}

// RequirePermission gates a route on an exact permission name. Must run
// after RequireAuth.
func (h *AuthHandler) RequirePermission(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authCtx := AuthContextFrom(c)
		if authCtx == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthenticated",
			})
		}
		if !authCtx.HasPermission(name) {
			h.authService.RecordAuthzFailure(c.Context(), authCtx, "route", c.Path(),
				fmt.Sprintf("missing permission %s", name))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": autherror.ErrPermissionDenied.Error(),
			})
		}
		return c.Next()
	}
}

// RequireCSRF enforces the double-submit check on state-changing routes.
func (h *AuthHandler) RequireCSRF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var userID string
		if authCtx := AuthContextFrom(c); authCtx != nil {
			userID = authCtx.User.ID
		}

		headerToken := c.Get(constant.CSRFHeader)
		cookieToken := c.Cookies(constant.CookieCSRFToken)

		if err := h.authService.VerifyCSRF(c.Context(), headerToken, cookieToken, userID, c.IP()); err != nil {
			if errors.Is(err, autherror.ErrCSRFValidationFailed) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": autherror.ErrCSRFValidationFailed.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}
		return c.Next()
	}
}
