// Package profile loads the YAML screening profile: criteria, universes and refresh schedule.
package profile

import (
	"time"

	"github.com/wonny/canslim/internal/canslim"
	"github.com/wonny/canslim/internal/screening"
	"github.com/wonny/canslim/internal/universe"
)

// Profile is the full screening profile
type Profile struct {
	Meta      Meta                  `yaml:"meta" json:"meta"`
	Criteria  Criteria              `yaml:"criteria" json:"criteria"`
	Universes []universe.Definition `yaml:"universes" json:"universes"`
	Schedule  Schedule              `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
	Timezone  string `yaml:"timezone" json:"timezone"`
}

// Criteria 판정 기준 (기간/벤치마크 0 또는 공백 = 환경 설정값 유지)
type Criteria struct {
	Benchmark           string  `yaml:"benchmark" json:"benchmark"`
	EarningsGrowthMin   float64 `yaml:"earnings_growth_min" json:"earnings_growth_min"`
	RelativeStrengthMin float64 `yaml:"relative_strength_min" json:"relative_strength_min"`
	SMAPeriod           int     `yaml:"sma_period" json:"sma_period"`
	RSLookbackDays      int     `yaml:"rs_lookback_days" json:"rs_lookback_days"`
	HistoryDays         int     `yaml:"history_days" json:"history_days"`
	FreshnessHours      int     `yaml:"freshness_hours" json:"freshness_hours"`
}

// Schedule 정기 갱신
type Schedule struct {
	RefreshCron string `yaml:"refresh_cron" json:"refresh_cron"` // 초 필드 포함 6자리
	Universe    string `yaml:"universe" json:"universe"`
}

// Apply overlays the profile criteria on base; unset fields keep base values
func (p *Profile) Apply(base screening.Config, hash string) screening.Config {
	c := p.Criteria
	out := base
	if c.Benchmark != "" {
		out.Benchmark = c.Benchmark
	}
	out.Thresholds = canslim.Thresholds{
		EarningsGrowthMin:   c.EarningsGrowthMin,
		RelativeStrengthMin: c.RelativeStrengthMin,
	}
	if c.SMAPeriod > 0 {
		out.Params.SMAPeriod = c.SMAPeriod
	}
	if c.RSLookbackDays > 0 {
		out.Params.RSLookback = c.RSLookbackDays
	}
	if c.HistoryDays > 0 {
		out.HistoryWindow = time.Duration(c.HistoryDays) * 24 * time.Hour
	}
	if c.FreshnessHours > 0 {
		out.FreshnessWindow = time.Duration(c.FreshnessHours) * time.Hour
	}
	out.ProfileHash = hash
	return out
}
