package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "티커 유니버스 조회",
	Long: `스크리닝 대상 유니버스를 조회합니다.

기본 제공: sp500, nasdaq100, dow (Wikipedia), sp500-csv (GitHub datasets)
프로파일의 universes 항목으로 추가 정의할 수 있습니다.

Example:
  go run ./cmd/canslim universe list
  go run ./cmd/canslim universe show dow`,
}

var (
	universeListCmd = &cobra.Command{
		Use:   "list",
		Short: "유니버스 목록",
		RunE:  runUniverseList,
	}

	universeShowCmd = &cobra.Command{
		Use:   "show NAME",
		Short: "유니버스 티커 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  runUniverseShow,
	}
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeListCmd)
	universeCmd.AddCommand(universeShowCmd)
}

func runUniverseList(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	widths := []int{14, 10, 6, 50}
	PrintTableHeader([]string{"Name", "Kind", "Limit", "Source"}, widths)
	for _, name := range a.resolver.Names() {
		def, err := a.resolver.Definition(name)
		if err != nil {
			return err
		}
		src := def.URL
		if src == "" {
			src = strings.Join(def.Tickers, ",")
		}
		limit := "-"
		if def.Limit > 0 {
			limit = fmt.Sprintf("%d", def.Limit)
		}
		PrintTableRow([]string{def.Name, string(def.Kind), limit, truncate(src, 50)}, widths)
	}
	return nil
}

func runUniverseShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers, err := a.resolver.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d ticker(s)\n", args[0], len(tickers))
	PrintList(tickers)
	return nil
}
