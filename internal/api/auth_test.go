package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"expertrait/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: "reader-key", Name: "reader", Permissions: []string{"read:bookings"}},
				{Key: "full-key", Name: "admin"},
			},
		},
	}
}

func doAuth(t *testing.T, cfg config.APIConfig, method, path, apiKey string) *http.Response {
	t.Helper()

	auth := NewHTTPAuth(cfg)
	handler := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Result()
}

func TestHTTPAuth(t *testing.T) {
	cfg := authConfig()

	t.Run("missing key", func(t *testing.T) {
		resp := doAuth(t, cfg, http.MethodGet, "/api/v1/dashboard/customer/c-1/bookings", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown key", func(t *testing.T) {
		resp := doAuth(t, cfg, http.MethodGet, "/api/v1/dashboard/customer/c-1/bookings", "nope")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid key with matching permission", func(t *testing.T) {
		resp := doAuth(t, cfg, http.MethodGet, "/api/v1/dashboard/customer/c-1/bookings", "reader-key")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("valid key without required permission", func(t *testing.T) {
		resp := doAuth(t, cfg, http.MethodGet, "/api/v1/dashboard/customer/c-1/export.csv", "reader-key")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("empty permission list allows everything", func(t *testing.T) {
		resp := doAuth(t, cfg, http.MethodGet, "/api/v1/dashboard/customer/c-1/export.csv", "full-key")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doAuth(t, cfg, http.MethodPost, "/api/v1/dashboard/customer/c-1/bookings/x/accept", "full-key")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("auth disabled passes through", func(t *testing.T) {
		open := config.APIConfig{}
		resp := doAuth(t, open, http.MethodGet, "/api/v1/dashboard/customer/c-1/bookings", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRequiredPermission(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/dashboard/customer/c-1/bookings", "read:bookings"},
		{http.MethodGet, "/api/v1/dashboard/professional/h-1/export.csv", "export:bookings"},
		{http.MethodPost, "/api/v1/dashboard/professional/h-1/export.xlsx", "export:bookings"},
		{http.MethodPost, "/api/v1/dashboard/professional/h-1/bookings/b1/accept", "write:bookings"},
		{http.MethodPost, "/api/v1/dashboard/professional/h-1/bookings/b1/complete", "write:bookings"},
		{http.MethodGet, "/api/v1/handler/h-1/wallet", "read:wallet"},
		{http.MethodPut, "/api/v1/dashboard/customer/c-1/filters", "write:bookings"},
		{http.MethodGet, "/healthz", ""},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, requiredPermission(req), "%s %s", tc.method, tc.path)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 2},
	}
	auth := NewHTTPAuth(cfg)
	handler := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	status := func() int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("x-api-key", "some-key")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, status())
	require.Equal(t, http.StatusOK, status())
	// Burst exhausted.
	assert.Equal(t, http.StatusTooManyRequests, status())
}

func TestRateLimitKeyedPerClient(t *testing.T) {
	cfg := config.APIConfig{
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 1},
	}
	auth := NewHTTPAuth(cfg)
	handler := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	status := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("x-api-key", key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, status("a"))
	assert.Equal(t, http.StatusTooManyRequests, status("a"))
	// A different client still has its own budget.
	assert.Equal(t, http.StatusOK, status("b"))
}
