package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/canslim/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// JobMetadata holds job execution metadata
type JobMetadata struct {
	JobID     string
	JobType   string
	Tag       string
	Timestamp string
	Symbols   string // Optional
}

// PrintJobHeader prints a formatted job header
func PrintJobHeader(meta JobMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.JobType)
	PrintSeparator()
	fmt.Printf("  Job ID    : %s\n", meta.JobID)
	if meta.Symbols != "" {
		fmt.Printf("  Symbols   : %s\n", meta.Symbols)
	}
	PrintSeparator()
	fmt.Printf("[%s] Started at %s\n", meta.Tag, meta.Timestamp)
}

// PrintProgress prints a progress step with counter
// Example: [Screen] AAPL PASS [1/8]
func PrintProgress(tag string, message string, current int, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintJobCompletion prints job completion message
func PrintJobCompletion(jobID string, duration time.Duration) {
	fmt.Println()
	fmt.Printf("✅ Job %s completed in %.2fs\n", jobID, duration.Seconds())
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// formatPct renders a ratio as a percentage with one decimal, "-" when unknown
func formatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return decimal.NewFromFloat(*v).Shift(2).StringFixed(1) + "%"
}

// formatRatio renders a ratio with two decimals
func formatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// formatPrice renders a price with two decimals
func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return "$" + decimal.NewFromFloat(*v).StringFixed(2)
}

func formatTrend(r *contracts.ScreeningResult) string {
	if r == nil || r.IsAboveSMA == nil {
		return "-"
	}
	if *r.IsAboveSMA {
		return "above"
	}
	return "below"
}

func statusIcon(s contracts.Status) string {
	switch s {
	case contracts.StatusPass:
		return "✅ PASS"
	case contracts.StatusFail:
		return "❌ FAIL"
	default:
		return "⚠️  INCOMPLETE"
	}
}

var resultColumns = []string{"Ticker", "Status", "EPS Growth", "RS", "Price", "SMA", "Trend", "Company"}
var resultWidths = []int{7, 14, 10, 6, 10, 10, 6, 28}

// PrintOutcomes prints one row per outcome
func PrintOutcomes(outcomes []contracts.Outcome) {
	PrintTableHeader(resultColumns, resultWidths)
	for _, o := range outcomes {
		r := o.Result
		if r == nil {
			r = &contracts.ScreeningResult{}
		}
		PrintTableRow([]string{
			o.Ticker,
			statusIcon(o.Status),
			formatPct(r.EarningsGrowth),
			formatRatio(r.RelativeStrength),
			formatPrice(r.CurrentPrice),
			formatPrice(r.SMA50),
			formatTrend(r),
			truncate(r.CompanyName, 28),
		}, resultWidths)
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
