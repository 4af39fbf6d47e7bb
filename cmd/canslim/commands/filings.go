package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// filingsCmd represents the filings command
var filingsCmd = &cobra.Command{
	Use:   "filings TICKER",
	Short: "최근 SEC 공시 조회",
	Long: `SEC EDGAR 에서 최근 10-Q / 10-K 공시를 조회합니다 (표시 전용).

Example:
  go run ./cmd/canslim filings AAPL
  go run ./cmd/canslim filings MSFT --form 10-K --limit 3`,
	Args: cobra.ExactArgs(1),
	RunE: runFilings,
}

var (
	filingsForm  string
	filingsLimit int
)

func init() {
	rootCmd.AddCommand(filingsCmd)

	filingsCmd.Flags().StringVar(&filingsForm, "form", "", "공시 유형 (10-Q, 10-K; 기본: 둘 다)")
	filingsCmd.Flags().IntVar(&filingsLimit, "limit", 5, "최대 건수")
}

func runFilings(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ticker := strings.ToUpper(args[0])
	filings, err := a.sec.LatestFilings(ctx, ticker, strings.ToUpper(filingsForm), filingsLimit)
	if err != nil {
		return fmt.Errorf("fetch filings for %s: %w", ticker, err)
	}
	if len(filings) == 0 {
		PrintInfo("No filings found for " + ticker)
		return nil
	}

	widths := []int{6, 12, 12, 22}
	PrintTableHeader([]string{"Form", "Filed", "Period", "Accession"}, widths)
	for _, f := range filings {
		PrintTableRow([]string{f.Form, f.FilingDate.Format("2006-01-02"), f.ReportDate, f.AccessionNumber}, widths)
		fmt.Printf("        %s\n", f.URL)
	}
	return nil
}
