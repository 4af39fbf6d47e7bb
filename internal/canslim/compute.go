package canslim

import (
	"github.com/wonny/canslim/internal/contracts"
)

// Inputs is whatever the fetch stage obtained for one ticker; any field may be empty
type Inputs struct {
	Ticker    string
	Prices    []contracts.PricePoint
	Benchmark []contracts.PricePoint
	Earnings  contracts.EarningsPair
	Metadata  *contracts.CompanyMetadata
}

// Params controls the metric windows
type Params struct {
	SMAPeriod  int
	RSLookback int
}

// DefaultParams returns SMA 50 and a 252 trading-day RS window
func DefaultParams() Params {
	return Params{SMAPeriod: 50, RSLookback: 252}
}

// Compute assembles a ScreeningResult from partial inputs
// CachedAt is left zero for the cache to stamp
func Compute(in Inputs, p Params) *contracts.ScreeningResult {
	r := &contracts.ScreeningResult{Ticker: in.Ticker}

	current, prior := in.Earnings.Values()
	r.EarningsGrowth = EarningsGrowth(current, prior)
	r.RelativeStrength = RelativeStrength(in.Prices, in.Benchmark, p.RSLookback)

	closes := contracts.Closes(in.Prices)
	if n := len(closes); n > 0 {
		r.CurrentPrice = contracts.Float(closes[n-1])
	}
	if trend := SMATrend(closes, p.SMAPeriod); trend != nil {
		r.SMA50 = contracts.Float(trend.SMA)
		r.IsAboveSMA = contracts.Bool(trend.Above)
	}

	if in.Metadata != nil {
		r.CompanyName = in.Metadata.Name
		r.Sector = in.Metadata.Sector
		r.Industry = in.Metadata.Industry
	}

	r.Missing = Classify(r, Thresholds{}).Missing
	return r
}
