package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	logLevel    string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canslim",
	Short: "CANSLIM equity screener",
	Long: `CANSLIM Screener CLI

미국 주식 CANSLIM 스크리너.
시세(Alpaca)와 재무(SEC EDGAR)를 수집해 EPS 성장률, 상대강도, SMA 추세로 판정합니다.

Usage:
  go run ./cmd/canslim [command]

Examples:
  go run ./cmd/canslim screen AAPL MSFT NVDA
  go run ./cmd/canslim screen --universe dow
  go run ./cmd/canslim serve
  go run ./cmd/canslim scheduler start
  go run ./cmd/canslim status`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "screening profile YAML (default: SCREEN_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
