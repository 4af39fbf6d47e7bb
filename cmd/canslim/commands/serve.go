package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/canslim/internal/api"
	"github.com/wonny/canslim/internal/api/handlers"
	"github.com/wonny/canslim/internal/scheduler"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                   - Health check
  GET  /metrics                  - Prometheus metrics
  POST /api/screen               - 배치 스크리닝 {"tickers":[...]} 또는 {"universe":"dow"}
  GET  /api/results/{ticker}     - 캐시된 결과 조회 (24h 이내)
  GET  /api/universes            - 유니버스 목록
  GET  /api/filings/{ticker}     - 최근 SEC 공시 (?form=10-Q&limit=5)
  GET  /ws/screen?tickers=A,B    - WebSocket 진행 스트림

Example:
  go run ./cmd/canslim serve
  go run ./cmd/canslim serve --port 8080 --with-scheduler`,
	RunE: runServe,
}

var (
	servePort          string
	serveWithScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT)")
	serveCmd.Flags().BoolVar(&serveWithScheduler, "with-scheduler", false, "정기 갱신 스케줄러 함께 실행")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== CANSLIM Screener API Server ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	screen := handlers.NewScreenHandler(a.screener, a.resolver, a.log)
	router := api.NewRouter(api.Handlers{
		Screen:  screen,
		Filings: handlers.NewFilingsHandler(a.sec, a.log),
		Stream:  handlers.NewStreamHandler(screen, a.log, a.cfg.AllowedOrigins),
	}, a.metrics, a.log)
	server := api.New(a.cfg, a.log, router)

	if serveWithScheduler {
		var sched *scheduler.Scheduler
		sched, err = newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	return server.Run(ctx)
}
