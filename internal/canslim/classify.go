package canslim

import (
	"github.com/wonny/canslim/internal/contracts"
)

// Thresholds are the strict lower bounds a ticker must exceed to pass
type Thresholds struct {
	EarningsGrowthMin   float64 `json:"earnings_growth_min" yaml:"earnings_growth_min"`
	RelativeStrengthMin float64 `json:"relative_strength_min" yaml:"relative_strength_min"`
}

// DefaultThresholds returns EG > 0.20 and RS > 1.0
func DefaultThresholds() Thresholds {
	return Thresholds{
		EarningsGrowthMin:   0.20,
		RelativeStrengthMin: 1.0,
	}
}

// Classification is the verdict for one result
type Classification struct {
	Status  contracts.Status
	Failed  []string
	Missing []string
}

// Classify applies the pass rule
// ⭐ SSOT: PASS/FAIL/INCOMPLETE 판정은 여기서만
// Missing metrics always give INCOMPLETE, even when another metric already fails
func Classify(r *contracts.ScreeningResult, th Thresholds) Classification {
	if r == nil {
		return Classification{
			Status:  contracts.StatusIncomplete,
			Missing: []string{contracts.MetricEarningsGrowth, contracts.MetricRelativeStrength, contracts.MetricSMATrend},
		}
	}

	var c Classification
	if r.EarningsGrowth == nil {
		c.Missing = append(c.Missing, contracts.MetricEarningsGrowth)
	} else if !(*r.EarningsGrowth > th.EarningsGrowthMin) {
		c.Failed = append(c.Failed, contracts.MetricEarningsGrowth)
	}

	if r.RelativeStrength == nil {
		c.Missing = append(c.Missing, contracts.MetricRelativeStrength)
	} else if !(*r.RelativeStrength > th.RelativeStrengthMin) {
		c.Failed = append(c.Failed, contracts.MetricRelativeStrength)
	}

	if r.IsAboveSMA == nil {
		c.Missing = append(c.Missing, contracts.MetricSMATrend)
	} else if !*r.IsAboveSMA {
		c.Failed = append(c.Failed, contracts.MetricSMATrend)
	}

	switch {
	case len(c.Missing) > 0:
		c.Status = contracts.StatusIncomplete
	case len(c.Failed) > 0:
		c.Status = contracts.StatusFail
	default:
		c.Status = contracts.StatusPass
	}
	return c
}
