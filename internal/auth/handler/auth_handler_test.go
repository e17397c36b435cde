package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reyer3/Pulso-Back-sub001/config"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/dto"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/handler"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/service"
	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
	"github.com/reyer3/Pulso-Back-sub001/internal/mocks"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

type handlerFixture struct {
	users  *mocks.MockUserRepository
	tokens *mocks.MockTokenRepository
	audit  *mocks.MockAuditRepository
	codec  *mocks.MockTokenGenerator
	app    *fiber.App
	h      *handler.AuthHandler
}

func newHandlerFixture(t *testing.T, ctrl *gomock.Controller) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		users:  mocks.NewMockUserRepository(ctrl),
		tokens: mocks.NewMockTokenRepository(ctrl),
		audit:  mocks.NewMockAuditRepository(ctrl),
		codec:  mocks.NewMockTokenGenerator(ctrl),
	}

	cfg := &config.Config{
		RefreshExpiryDays: 7,
		CSRFExpiryHours:   24,
		LoginMaxAttempts:  5,
		CookieHTTPOnly:    true,
		CookieSameSite:    "lax",
	}
	hasher := service.NewPasswordHasher(bcrypt.MinCost)
	guard := service.NewLockoutGuard(f.users, cfg.LoginMaxAttempts, 15*time.Minute, 30*time.Minute)
	recorder := service.NewAuditRecorder(f.audit)
	svc := service.NewAuthService(f.users, f.tokens, f.codec, hasher, guard, recorder, cfg)

	f.h = handler.NewAuthHandler(svc, cfg)
	f.app = fiber.New()

	// Audit persistence is exercised in the service tests.
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func testUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: string(hash),
		Status:       constant.UserStatusActive,
		Role: &domain.Role{
			ID:   "role-1",
			Name: "admin",
			Permissions: []domain.Permission{
				{ID: "perm-1", Name: "users.read", IsActive: true},
			},
		},
	}
}

func (f *handlerFixture) expectSuccessfulLogin(t *testing.T, user *domain.User) {
	t.Helper()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.users.EXPECT().ResetFailedAttempts(gomock.Any(), user.ID).Return(nil)
	f.users.EXPECT().GetByIDWithRole(gomock.Any(), user.ID).Return(user, nil)
	f.codec.EXPECT().IssueAccessToken(user.ID, user.Email, "admin").
		Return("signed-access-token", time.Now().Add(30*time.Minute), nil)
	f.codec.EXPECT().AccessTokenTTL().Return(30 * time.Minute)
	f.tokens.EXPECT().StoreRefresh(gomock.Any(), gomock.Any()).Return(nil)
	f.tokens.EXPECT().StoreCSRF(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
}

func loginRequest(t *testing.T, input dto.LoginInput) *http.Request {
	t.Helper()
	body, err := json.Marshal(input)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	f.app.Post("/login", f.h.Login)

	t.Run("success returns tokens in body", func(t *testing.T) {
		user := testUser(t, "S3cure!Pass")
		f.expectSuccessfulLogin(t, user)

		resp, err := f.app.Test(loginRequest(t, dto.LoginInput{
			Email:    "test@example.com",
			Password: "S3cure!Pass",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "signed-access-token", body.AccessToken)
		assert.Equal(t, constant.TokenTypeBearer, body.TokenType)
		assert.Equal(t, 1800, body.ExpiresIn)
		assert.NotEmpty(t, body.RefreshToken)
		assert.NotEmpty(t, body.CSRFToken)
		require.NotNil(t, body.User)
		assert.Equal(t, "test@example.com", body.User.Email)
		assert.Contains(t, body.User.Permissions, "users.read")

		csrfCookie := cookieByName(resp, constant.CookieCSRFToken)
		require.NotNil(t, csrfCookie)
		assert.False(t, csrfCookie.HttpOnly)
		assert.Nil(t, cookieByName(resp, constant.CookieRefreshToken))
	})

	t.Run("remember me moves refresh token to cookie", func(t *testing.T) {
		user := testUser(t, "S3cure!Pass")
		f.expectSuccessfulLogin(t, user)

		resp, err := f.app.Test(loginRequest(t, dto.LoginInput{
			Email:      "test@example.com",
			Password:   "S3cure!Pass",
			RememberMe: true,
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Empty(t, body.RefreshToken)

		refreshCookie := cookieByName(resp, constant.CookieRefreshToken)
		require.NotNil(t, refreshCookie)
		assert.NotEmpty(t, refreshCookie.Value)
		assert.True(t, refreshCookie.HttpOnly)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		user := testUser(t, "S3cure!Pass")
		f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		f.users.EXPECT().IncrementFailedAttempts(gomock.Any(), user.ID, gomock.Any()).Return(1, nil)

		resp, err := f.app.Test(loginRequest(t, dto.LoginInput{
			Email:    "test@example.com",
			Password: "wrong-password",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("locked account", func(t *testing.T) {
		until := time.Now().Add(10 * time.Minute)
		user := testUser(t, "S3cure!Pass")
		user.LockedUntil = &until
		f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)

		resp, err := f.app.Test(loginRequest(t, dto.LoginInput{
			Email:    "test@example.com",
			Password: "S3cure!Pass",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusLocked, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, err := f.app.Test(loginRequest(t, dto.LoginInput{Email: "test@example.com"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestRefreshHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	f.app.Post("/refresh", f.h.Refresh)

	t.Run("rotates token from cookie", func(t *testing.T) {
		user := testUser(t, "S3cure!Pass")
		oldHash := service.HashOpaque("old-refresh-raw")

		f.tokens.EXPECT().FindValidRefresh(gomock.Any(), oldHash).
			Return(&domain.RefreshToken{ID: "rt-1", UserID: user.ID, TokenHash: oldHash}, nil)
		f.tokens.EXPECT().RevokeRefresh(gomock.Any(), oldHash, constant.RevokeReasonRotated).Return(true, nil)
		f.users.EXPECT().GetByIDWithRole(gomock.Any(), user.ID).Return(user, nil)
		f.codec.EXPECT().IssueAccessToken(user.ID, user.Email, "admin").
			Return("new-access-token", time.Now().Add(30*time.Minute), nil)
		f.codec.EXPECT().AccessTokenTTL().Return(30 * time.Minute)
		f.tokens.EXPECT().StoreRefresh(gomock.Any(), gomock.Any()).Return(nil)
		f.tokens.EXPECT().StoreCSRF(gomock.Any(), gomock.Any()).Return(nil)

		req := httptest.NewRequest("POST", "/refresh", nil)
		req.AddCookie(&http.Cookie{Name: constant.CookieRefreshToken, Value: "old-refresh-raw"})

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.TokenResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "new-access-token", body.AccessToken)
		assert.Empty(t, body.RefreshToken)

		refreshCookie := cookieByName(resp, constant.CookieRefreshToken)
		require.NotNil(t, refreshCookie)
		assert.NotEqual(t, "old-refresh-raw", refreshCookie.Value)
	})

	t.Run("replayed token clears cookies", func(t *testing.T) {
		oldHash := service.HashOpaque("stolen-token")
		f.tokens.EXPECT().FindValidRefresh(gomock.Any(), oldHash).
			Return(&domain.RefreshToken{ID: "rt-1", UserID: "user-1", TokenHash: oldHash}, nil)
		f.tokens.EXPECT().RevokeRefresh(gomock.Any(), oldHash, constant.RevokeReasonRotated).Return(false, nil)

		req := httptest.NewRequest("POST", "/refresh", nil)
		req.AddCookie(&http.Cookie{Name: constant.CookieRefreshToken, Value: "stolen-token"})

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		refreshCookie := cookieByName(resp, constant.CookieRefreshToken)
		require.NotNil(t, refreshCookie)
		assert.Empty(t, refreshCookie.Value)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/refresh", nil)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLogoutHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	f.app.Post("/logout", f.h.Logout)

	t.Run("revokes refresh cookie without csrf material", func(t *testing.T) {
		f.tokens.EXPECT().
			RevokeRefresh(gomock.Any(), service.HashOpaque("refresh-raw"), constant.RevokeReasonLogout).
			Return(true, nil)

		req := httptest.NewRequest("POST", "/logout", nil)
		req.AddCookie(&http.Cookie{Name: constant.CookieRefreshToken, Value: "refresh-raw"})

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.LogoutResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
	})

	t.Run("succeeds with no session state at all", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/logout", nil)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestRequireCSRF(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	f.app.Post("/guarded", f.h.RequireCSRF(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("valid double submit passes", func(t *testing.T) {
		csrfRaw := "csrf-raw-token"
		f.tokens.EXPECT().ConsumeCSRF(gomock.Any(), service.HashOpaque(csrfRaw)).Return(true, nil)

		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(constant.CSRFHeader, csrfRaw)
		req.AddCookie(&http.Cookie{Name: constant.CookieCSRFToken, Value: csrfRaw})

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("mismatch rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(constant.CSRFHeader, "header-token")
		req.AddCookie(&http.Cookie{Name: constant.CookieCSRFToken, Value: "cookie-token"})

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: constant.CookieCSRFToken, Value: "cookie-token"})

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

func TestMeHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	f.app.Get("/me", f.h.RequireAuth(), f.h.Me)

	t.Run("success", func(t *testing.T) {
		user := testUser(t, "S3cure!Pass")
		claims := &service.AccessClaims{}
		claims.Subject = user.ID
		claims.ID = "jti-1"

		f.codec.EXPECT().VerifyAccessToken("valid-token").Return(claims, nil)
		f.users.EXPECT().GetByIDWithRole(gomock.Any(), user.ID).Return(user, nil)

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer valid-token")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.UserOutput
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "test@example.com", body.Email)
		require.NotNil(t, body.Role)
		assert.Equal(t, "admin", body.Role.Name)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		f.codec.EXPECT().VerifyAccessToken("stale-token").Return(nil, autherror.ErrTokenExpired)

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer stale-token")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCSRFTokenHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	f.app.Get("/csrf-token", f.h.CSRFToken)

	f.tokens.EXPECT().StoreCSRF(gomock.Any(), gomock.Any()).Return(nil)

	req := httptest.NewRequest("GET", "/csrf-token", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.CSRFTokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.CSRFToken)
	assert.Equal(t, int((24 * time.Hour).Seconds()), body.ExpiresIn)

	csrfCookie := cookieByName(resp, constant.CookieCSRFToken)
	require.NotNil(t, csrfCookie)
	assert.Equal(t, body.CSRFToken, csrfCookie.Value)
}
