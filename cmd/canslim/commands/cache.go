package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/screening"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "결과 캐시 조회",
	Long: `스크리닝 결과 캐시를 조회합니다. 조회만 하며 fetch 는 하지 않습니다.

Subcommands:
  stats   - 캐시 통계
  get     - 티커별 캐시 결과 (freshness window 이내만)

Example:
  go run ./cmd/canslim cache stats
  go run ./cmd/canslim cache get AAPL MSFT`,
}

var (
	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "캐시 통계",
		RunE:  runCacheStats,
	}

	cacheGetCmd = &cobra.Command{
		Use:   "get TICKER...",
		Short: "캐시된 결과 조회",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCacheGet,
	}
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheGetCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.results.Stats(ctx)
	if err != nil {
		return err
	}

	PrintKeyValue("Backend", st.Backend, 10)
	PrintKeyValue("Results", fmt.Sprintf("%d", st.Rows), 10)
	if st.Rows > 0 {
		now := time.Now().UTC()
		PrintKeyValue("Oldest", fmt.Sprintf("%s (%s ago)", st.Oldest.Format(time.RFC3339), now.Sub(st.Oldest).Round(time.Minute)), 10)
		PrintKeyValue("Newest", fmt.Sprintf("%s (%s ago)", st.Newest.Format(time.RFC3339), now.Sub(st.Newest).Round(time.Minute)), 10)
	}
	return nil
}

func runCacheGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers, rejected := screening.Normalize(args)
	for _, r := range rejected {
		PrintWarning(fmt.Sprintf("%q: %s", r.Input, r.Reason))
	}

	var found []contracts.Outcome
	for _, t := range tickers {
		o, err := a.screener.Lookup(ctx, t)
		if err != nil {
			return err
		}
		if o == nil {
			PrintInfo(t + ": no fresh result")
			continue
		}
		found = append(found, *o)
	}

	if len(found) > 0 {
		PrintOutcomes(found)
	}
	return nil
}
