package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/adpilot/internal/api"
	"github.com/wonny/adpilot/internal/api/handlers"
	"github.com/wonny/adpilot/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  POST /api/optimize                    - body 의 campaign 최적화
  POST /api/quality                     - body 의 campaign 품질 평가
  GET  /api/campaigns/{id}/optimize     - 저장된 campaign 최적화 (?goals=a,b)
  GET  /api/campaigns/{id}/quality      - 저장된 campaign 품질 평가
  GET  /api/stats                       - 엔진 통계

Example:
  go run ./cmd/adpilot api
  go run ./cmd/adpilot api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== adpilot API Server ===")

	// 1. Config, logger, store, engine
	a, err := newApp(appOptions{store: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 2. Handler + router
	engineHandler := handlers.NewEngineHandler(a.orchestrator, a.store(), a.log)
	deps := api.RouterDeps{
		Engine: engineHandler,
		DB:     a.db,
		Logger: a.log,
	}
	if a.redis.Enabled() {
		deps.Limiter = redis.NewRateLimiter(a.redis, "adpilot")
	}
	router := api.NewRouter(deps)

	// 3. Server with graceful shutdown
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
