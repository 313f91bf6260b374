package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/adpilot/internal/api/handlers"
	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/config"
	"github.com/wonny/adpilot/pkg/logger"
	"github.com/wonny/adpilot/pkg/redis"
)

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(_ context.Context, cfg redis.RateLimitConfig) (bool, int, error) {
	f.keys = append(f.keys, cfg.Key)
	if f.allowed {
		return true, cfg.Limit - 1, f.err
	}
	return false, 0, f.err
}

func newTestRouter(limiter Limiter) http.Handler {
	orch := brain.NewOrchestrator(engineconfig.Default(), logger.Nop())
	return NewRouter(RouterDeps{
		Engine:  handlers.NewEngineHandler(orch, nil, logger.Nop()),
		Limiter: limiter,
		Logger:  logger.Nop(),
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"adpilot-api"}`, rec.Body.String())
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/api/stats", "", http.StatusOK},
		{"POST", "/api/quality", `{"campaign": {"campaign_id": "c-9"}}`, http.StatusOK},
		{"POST", "/api/optimize", `{"campaign": {"campaign_id": "c-9"}}`, http.StatusOK},
		{"GET", "/api/campaigns/c-9/optimize", "", http.StatusUnprocessableEntity},
		{"GET", "/api/campaigns/c-9/quality", "", http.StatusServiceUnavailable},
		{"GET", "/api/campaigns/c-9/optimizations/latest", "", http.StatusServiceUnavailable},
		{"GET", "/api/optimize", "", http.StatusMethodNotAllowed},
		{"GET", "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimit_Denied(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	router := newTestRouter(limiter)

	req := httptest.NewRequest("POST", "/api/optimize", strings.NewReader(`{"campaign": {"campaign_id": "c-9"}}`))
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "optimize:10.0.0.7", limiter.keys[0])
}

func TestRateLimit_AllowedAndFailOpen(t *testing.T) {
	limiter := &fakeLimiter{allowed: true}
	router := newTestRouter(limiter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/quality", strings.NewReader(`{"campaign": {"campaign_id": "c-9"}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "239", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "quality:192.0.2.1", limiter.keys[0])

	// Redis 오류는 요청을 막지 않음
	broken := &fakeLimiter{err: errors.New("redis down")}
	rec = httptest.NewRecorder()
	newTestRouter(broken).ServeHTTP(rec, httptest.NewRequest("GET", "/api/campaigns/c-9/optimize", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRateLimit_DisabledRedisAllowsAll(t *testing.T) {
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	router := newTestRouter(redis.NewRateLimiter(client, "adpilot"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/campaigns/c-9/optimize", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "120", rec.Header().Get("X-RateLimit-Remaining"))
}
