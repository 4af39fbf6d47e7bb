package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정 및 연결 상태 확인",
	Long: `현재 설정과 외부 의존성 상태를 표시합니다.

표시 정보:
- 캐시 백엔드와 저장된 결과 수
- 프로파일 / 스크리닝 기준
- Provider 자격증명 누락 여부
- Redis / PostgreSQL 연결 상태

Example:
  go run ./cmd/canslim status`,
	RunE: runStatus,
}

const statusKeyWidth = 16

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("=== CANSLIM Screener Status ===")
	PrintSeparator()

	sc := a.screener.Config()
	PrintKeyValue("Env", a.cfg.Env, statusKeyWidth)
	PrintKeyValue("Benchmark", sc.Benchmark, statusKeyWidth)
	PrintKeyValue("EPS growth min", formatPct(&sc.Thresholds.EarningsGrowthMin), statusKeyWidth)
	PrintKeyValue("RS min", formatRatio(&sc.Thresholds.RelativeStrengthMin), statusKeyWidth)
	PrintKeyValue("Freshness", sc.FreshnessWindow.String(), statusKeyWidth)
	PrintKeyValue("Concurrency", fmt.Sprintf("%d", sc.Concurrency), statusKeyWidth)
	if a.profile != nil {
		PrintKeyValue("Profile", fmt.Sprintf("%s v%s (%s)", a.profile.Meta.ProfileID, a.profile.Meta.Version, a.profileHash[:12]), statusKeyWidth)
	} else {
		PrintKeyValue("Profile", "(none)", statusKeyWidth)
	}

	PrintSeparator()
	if missing := a.cfg.MissingKeys(); len(missing) > 0 {
		PrintWarning("Missing credentials: " + strings.Join(missing, ", "))
	} else {
		PrintSuccess("Provider credentials configured")
	}

	st, err := a.results.Stats(ctx)
	if err != nil {
		PrintWarning(fmt.Sprintf("Cache (%s): %v", a.cfg.Cache.Backend, err))
	} else {
		PrintSuccess(fmt.Sprintf("Cache (%s): %d result(s)", st.Backend, st.Rows))
	}

	switch {
	case a.redis == nil || !a.redis.Enabled():
		PrintInfo("Redis: disabled")
	case a.redis.Ping(ctx) != nil:
		PrintError("Redis: unreachable")
	default:
		PrintSuccess("Redis: connected")
	}

	if a.cfg.Database.URL != "" {
		checkDatabase(ctx, a.cfg.Database)
	}
	return nil
}

func checkDatabase(ctx context.Context, cfg config.DatabaseConfig) {
	db, err := database.Open(ctx, cfg.URL, cfg)
	if err != nil {
		PrintError(fmt.Sprintf("PostgreSQL: %v", err))
		return
	}
	defer db.Close()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError("PostgreSQL: " + health.Error)
		return
	}
	PrintSuccess(fmt.Sprintf("PostgreSQL: connected (%v, %d idle conns)", health.ResponseTime.Round(time.Millisecond), health.Stats.IdleConns))
}
