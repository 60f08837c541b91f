package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"academic-scheduler/config"
	"academic-scheduler/internal/api/handler"
	"academic-scheduler/internal/service"
	"academic-scheduler/pkg/jwt"
)

func setupTestRouter() http.Handler {
	cfg := &config.Config{
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20, CORS: config.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}}},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret-0123456789", AccessTokenTTL: time.Minute},
	}
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, jwt.NewManager(&cfg.Auth), nil, nil, zap.NewNop())
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := setupTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := setupTestRouter()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/schedules"},
		{http.MethodPost, "/api/v1/schedules"},
		{http.MethodDelete, "/api/v1/courses/x"},
		{http.MethodGet, "/api/v1/export/schedules"},
		{http.MethodGet, "/api/v1/auth/me"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_WritesRequireRole(t *testing.T) {
	r := setupTestRouter()
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "router-test-secret-0123456789", AccessTokenTTL: time.Minute})
	token, _ := mgr.GenerateAccessToken(jwt.Subject{UserID: "p1", Role: "professor"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
