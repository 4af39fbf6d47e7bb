package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/screening"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen [TICKER...]",
	Short: "종목 스크리닝 실행",
	Long: `티커 목록 또는 유니버스를 CANSLIM 기준으로 스크리닝합니다.

판정:
- PASS: EPS 성장률 > 임계값, 상대강도 > 임계값, 현재가 > SMA
- FAIL: 모든 지표 계산 성공, 하나 이상 기준 미달
- INCOMPLETE: 하나 이상 지표 계산 불가

24시간 이내 캐시 결과는 재수집 없이 재사용합니다.
Ctrl+C 시 진행 중인 종목까지 완료 후 부분 결과를 출력합니다.

Example:
  go run ./cmd/canslim screen AAPL MSFT NVDA
  go run ./cmd/canslim screen --universe sp500 --limit 20
  go run ./cmd/canslim screen --universe dow --json`,
	RunE: runScreen,
}

var (
	screenUniverse    string
	screenJSON        bool
	screenConcurrency int
	screenAll         bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVarP(&screenUniverse, "universe", "u", "", "유니버스 이름 (sp500, nasdaq100, dow, ...)")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "JSON 출력")
	screenCmd.Flags().IntVarP(&screenConcurrency, "concurrency", "c", 0, "동시 처리 종목 수 (기본: SCREEN_CONCURRENCY)")
	screenCmd.Flags().BoolVar(&screenAll, "all", false, "PASS 외 전체 결과 출력")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var done int32
	var total int
	progress := screening.WithOutcomeHook(func(o contracts.Outcome) {
		if screenJSON {
			return
		}
		n := atomic.AddInt32(&done, 1)
		msg := fmt.Sprintf("%-5s %s", o.Ticker, o.Status)
		if o.FromCache {
			msg += " (cached)"
		}
		PrintProgress("Screen", msg, int(n), total)
	})

	a, err := newApp(ctx, progress)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers, err := a.resolveTickers(ctx, args, screenUniverse)
	if err != nil {
		return err
	}
	total = len(tickers)

	if !screenJSON {
		PrintJobHeader(JobMetadata{
			JobID:     "-",
			JobType:   "CANSLIM Screen",
			Tag:       "Screen",
			Timestamp: time.Now().Format(time.RFC3339),
			Symbols:   summarizeTickers(tickers),
		})
	}

	batch, err := a.screener.ScreenBatch(ctx, tickers)
	var verr *screening.ValidationError
	if errors.As(err, &verr) {
		for _, r := range verr.Rejected {
			PrintError(fmt.Sprintf("%q: %s", r.Input, r.Reason))
		}
		return err
	}
	if batch == nil {
		return err
	}

	if screenJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(batch); encErr != nil {
			return encErr
		}
		return err
	}

	printBatch(batch)
	if err != nil {
		PrintWarning(fmt.Sprintf("Screen interrupted: %d of %d tickers screened", len(batch.Outcomes), total))
		return err
	}
	return nil
}

func printBatch(batch *contracts.BatchResult) {
	fmt.Println()
	for _, r := range batch.Rejected {
		PrintWarning(fmt.Sprintf("Rejected %q: %s", r.Input, r.Reason))
	}

	counts := batch.Counts()
	passing := batch.Passing()

	PrintDoubleSeparator()
	fmt.Printf("  PASS %d · FAIL %d · INCOMPLETE %d · rejected %d\n",
		counts[contracts.StatusPass], counts[contracts.StatusFail], counts[contracts.StatusIncomplete], len(batch.Rejected))
	PrintDoubleSeparator()

	if screenAll {
		PrintOutcomes(batch.Outcomes)
	} else if len(passing) > 0 {
		PrintOutcomes(passing)
	} else {
		PrintInfo("No ticker passed all CANSLIM criteria")
	}

	if screenAll {
		for _, o := range batch.Outcomes {
			if o.Status == contracts.StatusIncomplete {
				fmt.Printf("   %s missing: %s\n", o.Ticker, strings.Join(o.Missing, ", "))
			}
		}
	}

	PrintJobCompletion(batch.BatchID, batch.Duration)
}

func summarizeTickers(tickers []string) string {
	if len(tickers) <= 10 {
		return strings.Join(tickers, ", ")
	}
	return fmt.Sprintf("%s, ... (%d total)", strings.Join(tickers[:10], ", "), len(tickers))
}
