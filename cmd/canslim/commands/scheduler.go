package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/canslim/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 캐시 갱신 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/canslim scheduler start
  go run ./cmd/canslim scheduler list
  go run ./cmd/canslim scheduler run refresh_watchlist`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 갱신 작업을 스케줄합니다.

등록되는 작업:
- refresh_<universe>: SCHEDULE_REFRESH_CRON (기본 평일 16:30:00) 에 유니버스 재스크리닝

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the refresh job from config, overridden by the profile schedule
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	cronSpec, universeName := a.cfg.Schedule.RefreshCron, a.cfg.Schedule.Universe
	var opts []scheduler.Option
	if a.profile != nil {
		if a.profile.Schedule.RefreshCron != "" {
			cronSpec = a.profile.Schedule.RefreshCron
		}
		if a.profile.Schedule.Universe != "" {
			universeName = a.profile.Schedule.Universe
		}
		if tz := a.profile.Meta.Timezone; tz != "" {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return nil, err
			}
			opts = append(opts, scheduler.WithLocation(loc))
		}
	}

	s := scheduler.New(a.log, opts...)
	if err := s.AddJob(scheduler.NewRefreshJob(a.screener, a.resolver, universeName, cronSpec, a.log)); err != nil {
		return nil, err
	}
	return s, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== CANSLIM Scheduler ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}
	s.Start()

	fmt.Println("\n✅ Scheduler started")
	for _, name := range s.GetAllJobs() {
		fmt.Printf("   • %s (%s)\n", name, s.GetJobStats()[name].Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	widths := []int{28, 24}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for name, st := range s.GetJobStats() {
		PrintTableRow([]string{name, st.Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	result, err := s.RunJob(ctx, args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		PrintError(fmt.Sprintf("Job %s failed after %d attempt(s): %s", result.JobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", result.JobName, result.Duration.Seconds()))
	return nil
}
