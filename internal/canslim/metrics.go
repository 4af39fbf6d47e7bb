// Package canslim computes the C (current earnings), L (relative strength) and trend
// criteria from raw series. Functions here do no I/O and never return errors: an input that
// cannot produce a metric yields nil.
package canslim

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/canslim/internal/contracts"
)

// EarningsGrowth returns (current - prior) / |prior|
// nil when either input is missing or non-finite, or prior is zero
func EarningsGrowth(current, prior *float64) *float64 {
	if current == nil || prior == nil {
		return nil
	}
	c, p := *current, *prior
	if !finite(c) || !finite(p) || p == 0 {
		return nil
	}
	return contracts.Float((c - p) / math.Abs(p))
}

// RelativeStrength divides the ticker's growth factor by the benchmark's over the same dates.
// The window is the benchmark's last lookback+1 bars; the ticker is read at its last close on
// or before each end of that window, so a missing ticker bar never shifts the window.
// nil when the ticker has no bar at or before the window start.
func RelativeStrength(ticker, benchmark []contracts.PricePoint, lookback int) *float64 {
	if lookback < 1 || len(benchmark) < lookback+1 {
		return nil
	}
	from, to := benchmark[len(benchmark)-1-lookback], benchmark[len(benchmark)-1]

	bf, ok := ratio(from.Close, to.Close)
	if !ok || bf == 0 {
		return nil
	}

	tStart, ok := closeAsOf(ticker, from.Date)
	if !ok {
		return nil
	}
	tEnd, ok := closeAsOf(ticker, to.Date)
	if !ok {
		return nil
	}
	tf, ok := ratio(tStart, tEnd)
	if !ok {
		return nil
	}
	return contracts.Float(tf / bf)
}

// closeAsOf returns the last close dated on or before day; series is oldest first
func closeAsOf(series []contracts.PricePoint, day time.Time) (float64, bool) {
	i := sort.Search(len(series), func(i int) bool { return series[i].Date.After(day) })
	if i == 0 {
		return 0, false
	}
	return series[i-1].Close, true
}

// TotalReturn returns last/start - 1 over lookback bars
func TotalReturn(series []float64, lookback int) *float64 {
	f, ok := growthFactor(series, lookback)
	if !ok {
		return nil
	}
	return contracts.Float(f - 1)
}

func growthFactor(series []float64, lookback int) (float64, bool) {
	if lookback < 1 || len(series) < lookback+1 {
		return 0, false
	}
	return ratio(series[len(series)-1-lookback], series[len(series)-1])
}

func ratio(start, last float64) (float64, bool) {
	if !finite(start) || !finite(last) || start <= 0 || last < 0 {
		return 0, false
	}
	return last / start, true
}

// Trend is the price position against its simple moving average
type Trend struct {
	SMA   float64
	Price float64
	Above bool
}

// SMATrend averages the trailing period closes and compares the latest close to it
func SMATrend(closes []float64, period int) *Trend {
	if period < 1 || len(closes) < period {
		return nil
	}

	sum := 0.0
	for _, v := range closes[len(closes)-period:] {
		if !finite(v) {
			return nil
		}
		sum += v
	}
	sma := sum / float64(period)
	price := closes[len(closes)-1]

	return &Trend{
		SMA:   sma,
		Price: price,
		Above: price > sma,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
