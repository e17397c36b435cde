package handler_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/handler"
)

func TestRegisterRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	limiter := handler.NewRateLimiter(context.Background(), 100, 100)
	handler.RegisterRoutes(f.app, f.h, limiter)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/auth/login"},
		{"POST", "/api/v1/auth/refresh"},
		{"POST", "/api/v1/auth/logout"},
		{"GET", "/api/v1/auth/csrf-token"},
		{"GET", "/api/v1/auth/me"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if tt.path == "/api/v1/auth/csrf-token" {
				f.tokens.EXPECT().StoreCSRF(gomock.Any(), gomock.Any()).Return(nil)
			}

			req := httptest.NewRequest(tt.method, tt.path, nil)
			resp, err := f.app.Test(req)
			require.NoError(t, err)
			assert.NotEqual(t, fiber.StatusNotFound, resp.StatusCode)
			assert.NotEqual(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := handler.NewRateLimiter(ctx, 1, 2)

	f.app.Get("/limited", limiter.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Burst of two passes, the third request in the same instant is rejected.
	for i := 0; i < 2; i++ {
		resp, err := f.app.Test(httptest.NewRequest("GET", "/limited", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := f.app.Test(httptest.NewRequest("GET", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiter_KeepsLimitingAfterContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(t, ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	limiter := handler.NewRateLimiter(ctx, 1, 1)
	cancel()

	f.app.Get("/limited", limiter.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Cancellation only stops the idle-client eviction goroutine; the
	// buckets themselves keep enforcing the limit.
	resp, err := f.app.Test(httptest.NewRequest("GET", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = f.app.Test(httptest.NewRequest("GET", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
