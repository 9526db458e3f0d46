package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfatlas/internal/api"
	"github.com/wonny/mfatlas/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                    - Health check
  GET  /api/funds?category=       - 펀드 목록 (스코어 내림차순)
  GET  /api/funds/{id}            - 펀드 상세 (수익률 + 스코어)
  GET  /api/funds/{id}/nav        - NAV 히스토리 (?from=&to=)
  GET  /api/indices               - 벤치마크 지수
  GET  /api/categories/averages   - 카테고리 평균 수익률
  GET  /api/quality/latest        - 최신 품질 스냅샷
  GET  /api/runs/latest           - 최근 파이프라인 실행
  POST /api/sip                   - SIP 시뮬레이션

Example:
  go run ./cmd/atlas api
  go run ./cmd/atlas api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MF Atlas API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	h := handlers.NewHandler(handlers.Repositories{
		Funds:        a.funds,
		FundNAVs:     a.fundNAVs,
		Indices:      a.indices,
		IndexHistory: a.indexHistory,
		Metrics:      a.metrics,
		Runs:         a.runs,
		Quality:      a.quality,
	}, a.sip, a.cache, a.log)

	router := api.NewRouter(h, a.cfg.CORSAllowedOrigins, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("✅ Listening on :%s (env: %s)\n", a.cfg.Port, a.cfg.Env)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	fmt.Println("\n🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
