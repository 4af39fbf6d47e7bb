package contracts

import (
	"math"
	"time"
)

// Status is the terminal classification of a screened ticker
type Status string

const (
	StatusPass       Status = "PASS"
	StatusFail       Status = "FAIL"
	StatusIncomplete Status = "INCOMPLETE"
)

// Metric names used in Missing / FailedCriteria lists
const (
	MetricEarningsGrowth   = "earnings_growth"
	MetricRelativeStrength = "relative_strength"
	MetricSMATrend         = "sma_trend"
)

// ScreeningResult is the latest computed screen for one ticker
// ⭐ SSOT: 캐시에 저장되는 유일한 결과 레코드 (티커당 1행)
type ScreeningResult struct {
	Ticker string `json:"ticker"`

	// CANSLIM 지표 (nil = 계산 불가)
	EarningsGrowth   *float64 `json:"earnings_growth"`
	RelativeStrength *float64 `json:"relative_strength"`
	CurrentPrice     *float64 `json:"current_price"`
	SMA50            *float64 `json:"sma_50"`
	IsAboveSMA       *bool    `json:"is_above_sma"`

	// 메타데이터 (판정에 사용하지 않음)
	CompanyName string `json:"company_name,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`

	Missing     []string `json:"missing,omitempty"`
	FetchErrors []string `json:"fetch_errors,omitempty"`

	CachedAt time.Time `json:"cached_at"`
}

// HasAllMetrics reports whether all three core metrics were computed
func (r *ScreeningResult) HasAllMetrics() bool {
	return r.EarningsGrowth != nil && r.RelativeStrength != nil && r.IsAboveSMA != nil
}

// Age returns how old the result is at now
func (r *ScreeningResult) Age(now time.Time) time.Duration {
	return now.Sub(r.CachedAt)
}

// IsFresh reports now - cached_at <= maxAge
func (r *ScreeningResult) IsFresh(now time.Time, maxAge time.Duration) bool {
	return r.Age(now) <= maxAge
}

// Clone returns a deep copy
func (r *ScreeningResult) Clone() *ScreeningResult {
	if r == nil {
		return nil
	}
	out := *r
	out.EarningsGrowth = cloneFloat(r.EarningsGrowth)
	out.RelativeStrength = cloneFloat(r.RelativeStrength)
	out.CurrentPrice = cloneFloat(r.CurrentPrice)
	out.SMA50 = cloneFloat(r.SMA50)
	if r.IsAboveSMA != nil {
		v := *r.IsAboveSMA
		out.IsAboveSMA = &v
	}
	out.Missing = append([]string(nil), r.Missing...)
	out.FetchErrors = append([]string(nil), r.FetchErrors...)
	return &out
}

// Float returns a pointer to v, or nil when v is NaN or infinite
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Outcome is the per-ticker record returned by a batch
type Outcome struct {
	Ticker         string           `json:"ticker"`
	Status         Status           `json:"status"`
	Result         *ScreeningResult `json:"result"`
	FromCache      bool             `json:"from_cache"`
	FailedCriteria []string         `json:"failed_criteria,omitempty"`
	Missing        []string         `json:"missing,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
}

// RejectedTicker is a caller input excluded before the batch ran
type RejectedTicker struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// BatchResult aggregates one ScreenBatch call
type BatchResult struct {
	BatchID     string           `json:"batch_id"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
	ProfileHash string           `json:"profile_hash,omitempty"`
	Outcomes    []Outcome        `json:"outcomes"`
	Rejected    []RejectedTicker `json:"rejected"`
}

// Counts returns the number of outcomes per status
func (b *BatchResult) Counts() map[Status]int {
	counts := map[Status]int{StatusPass: 0, StatusFail: 0, StatusIncomplete: 0}
	for _, o := range b.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Passing returns PASS outcomes ordered by relative strength, strongest first
func (b *BatchResult) Passing() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Status == StatusPass {
			out = append(out, o)
		}
	}
	sortByRelativeStrength(out)
	return out
}

func sortByRelativeStrength(outcomes []Outcome) {
	rs := func(o Outcome) float64 {
		if o.Result == nil || o.Result.RelativeStrength == nil {
			return math.Inf(-1)
		}
		return *o.Result.RelativeStrength
	}
	// insertion sort keeps equal RS in batch order
	for i := 1; i < len(outcomes); i++ {
		for j := i; j > 0 && rs(outcomes[j]) > rs(outcomes[j-1]); j-- {
			outcomes[j], outcomes[j-1] = outcomes[j-1], outcomes[j]
		}
	}
}
