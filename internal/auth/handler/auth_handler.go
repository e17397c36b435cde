package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/reyer3/Pulso-Back-sub001/config"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/dto"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/service"
	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}
	if input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email and password are required",
		})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		return h.loginError(c, err)
	}

	h.setCSRFCookie(c, result.CSRFToken)

	resp := dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   constant.TokenTypeBearer,
		ExpiresIn:   result.ExpiresIn,
		CSRFToken:   result.CSRFToken,
		User:        userOutput(result.User),
	}
	if input.RememberMe {
		h.setRefreshCookie(c, result.RefreshToken)
	} else {
		resp.RefreshToken = result.RefreshToken
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}
	// Cookie delivery takes precedence over the body.
	if cookie := c.Cookies(constant.CookieRefreshToken); cookie != "" {
		input.RefreshToken = cookie
	}
	if input.RefreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "refresh token is required",
		})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	result, err := h.authService.Refresh(c.Context(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrInvalidToken) || errors.Is(err, autherror.ErrTokenExpired) {
			h.clearAuthCookies(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": autherror.ErrInvalidToken.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	h.setCSRFCookie(c, result.CSRFToken)

	resp := dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   constant.TokenTypeBearer,
		ExpiresIn:   result.ExpiresIn,
		CSRFToken:   result.CSRFToken,
	}
	if c.Cookies(constant.CookieRefreshToken) != "" {
		h.setRefreshCookie(c, result.RefreshToken)
	} else {
		resp.RefreshToken = result.RefreshToken
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	rawRefresh := c.Cookies(constant.CookieRefreshToken)
	if rawRefresh == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&body); err == nil {
			rawRefresh = body.RefreshToken
		}
	}

	var userID string
	if authCtx := AuthContextFrom(c); authCtx != nil {
		userID = authCtx.User.ID
	}

	h.authService.Logout(c.Context(), rawRefresh, userID, c.IP(), string(c.Request().Header.UserAgent()))
	h.clearAuthCookies(c)

	return c.Status(fiber.StatusOK).JSON(dto.LogoutResponse{
		Message: "logged out",
		Success: true,
	})
}

// Me returns the authenticated principal with role and active permissions.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	authCtx := AuthContextFrom(c)
	if authCtx == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthenticated",
		})
	}
	return c.Status(fiber.StatusOK).JSON(userOutput(authCtx.User))
}

// CSRFToken issues a fresh anonymous CSRF token for pre-login forms.
func (h *AuthHandler) CSRFToken(c *fiber.Ctx) error {
	var userID string
	if authCtx := AuthContextFrom(c); authCtx != nil {
		userID = authCtx.User.ID
	}

	token, err := h.authService.IssueCSRF(c.Context(), userID, "", c.IP())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	h.setCSRFCookie(c, token)

	return c.Status(fiber.StatusOK).JSON(dto.CSRFTokenResponse{
		CSRFToken: token,
		ExpiresIn: int(h.cfg.CSRFTokenTTL().Seconds()),
	})
}

func (h *AuthHandler) loginError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrAccountLocked):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error": autherror.ErrAccountLocked.Error(),
		})
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": autherror.ErrInvalidCredentials.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.CookieRefreshToken,
		Value:    token,
		Path:     "/api/v1/auth",
		MaxAge:   int(h.cfg.RefreshTokenTTL().Seconds()),
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: h.cfg.CookieHTTPOnly,
		SameSite: sameSiteValue(h.cfg.CookieSameSite),
	})
}

// The CSRF cookie is intentionally readable by scripts; the double-submit
// scheme needs the client to echo it back in a header.
func (h *AuthHandler) setCSRFCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.CookieCSRFToken,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.CSRFTokenTTL().Seconds()),
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: false,
		SameSite: sameSiteValue(h.cfg.CookieSameSite),
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.CookieRefreshToken,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: h.cfg.CookieHTTPOnly,
		SameSite: sameSiteValue(h.cfg.CookieSameSite),
	})
	c.Cookie(&fiber.Cookie{
		Name:     constant.CookieCSRFToken,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.cfg.CookieSecure,
		SameSite: sameSiteValue(h.cfg.CookieSameSite),
	})
}

func sameSiteValue(mode string) string {
	switch mode {
	case "strict":
		return fiber.CookieSameSiteStrictMode
	case "none":
		return fiber.CookieSameSiteNoneMode
	default:
		return fiber.CookieSameSiteLaxMode
	}
}

func userOutput(user *domain.User) *dto.UserOutput {
	if user == nil {
		return nil
	}
	out := &dto.UserOutput{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		LastLoginAt: user.LastLoginAt,
	}
	if user.Role != nil {
		out.Role = &dto.RoleOutput{
			ID:          user.Role.ID,
			Name:        user.Role.Name,
			DisplayName: user.Role.DisplayName,
		}
		for _, p := range user.Role.Permissions {
			if p.IsActive {
				out.Permissions = append(out.Permissions, p.Name)
			}
		}
	}
	return out
}
