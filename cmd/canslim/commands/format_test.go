package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/canslim/internal/contracts"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pct", formatPct(contracts.Float(0.2549)), "25.5%"},
		{"negative pct", formatPct(contracts.Float(-0.1)), "-10.0%"},
		{"nil pct", formatPct(nil), "-"},
		{"ratio", formatRatio(contracts.Float(1.15)), "1.15"},
		{"price", formatPrice(contracts.Float(189.9)), "$189.90"},
		{"nil price", formatPrice(nil), "-"},
		{"trend above", formatTrend(&contracts.ScreeningResult{IsAboveSMA: contracts.Bool(true)}), "above"},
		{"trend unknown", formatTrend(&contracts.ScreeningResult{}), "-"},
		{"truncate", truncate("International Business Machines", 10), "Internati…"},
		{"short", truncate("Apple", 10), "Apple"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
