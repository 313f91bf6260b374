package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/adpilot/internal/api/handlers"
	"github.com/wonny/adpilot/pkg/database"
	"github.com/wonny/adpilot/pkg/logger"
	"github.com/wonny/adpilot/pkg/redis"
)

// Limiter decides whether one more request fits the rate limit (redis.RateLimiter)
type Limiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// RouterDeps are the collaborators of the HTTP adapter; DB and Limiter may be nil
type RouterDeps struct {
	Engine  *handlers.EngineHandler
	DB      *database.DB
	Limiter Limiter
	Logger  *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.DB)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Optimization endpoints
	optimize := rateLimitMiddleware(deps.Limiter, redis.OptimizeRateLimit, log)
	api.Handle("/optimize", optimize(http.HandlerFunc(deps.Engine.Optimize))).Methods("POST")
	api.Handle("/campaigns/{id}/optimize", optimize(http.HandlerFunc(deps.Engine.OptimizeCampaign))).Methods("GET")
	api.HandleFunc("/campaigns/{id}/optimizations/latest", deps.Engine.LatestOptimization).Methods("GET")

	// Quality endpoints
	quality := rateLimitMiddleware(deps.Limiter, redis.QualityRateLimit, log)
	api.Handle("/quality", quality(http.HandlerFunc(deps.Engine.AssessQuality))).Methods("POST")
	api.Handle("/campaigns/{id}/quality", quality(http.HandlerFunc(deps.Engine.AssessCampaign))).Methods("GET")

	api.HandleFunc("/stats", deps.Engine.GetStats).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "adpilot-api",
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			health, err := db.HealthCheck(ctx)
			body["database"] = health
			if err != nil {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// rateLimitMiddleware applies a per-client sliding window limit
func rateLimitMiddleware(limiter Limiter, limit redis.RateLimitConfig, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, err := limiter.Allow(r.Context(), limit.ForClient(clientID(r)))
			if err != nil {
				// Redis 장애 시 요청 허용
				log.WithError(err).Warn("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(limit.Window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientID identifies the caller: first X-Forwarded-For hop, then remote host
func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
