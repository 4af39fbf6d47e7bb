package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/canslim/internal/universe"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// CronParser accepts the six-field cron expressions used by the scheduler
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks all required constraints
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}
	if p.Meta.Timezone != "" {
		if _, err := time.LoadLocation(p.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	// === Criteria ===
	c := p.Criteria
	if c.EarningsGrowthMin <= -1 {
		return ValidationError{"criteria.earnings_growth_min", "must be > -1"}
	}
	if c.RelativeStrengthMin <= 0 {
		return ValidationError{"criteria.relative_strength_min", "must be > 0"}
	}
	if c.SMAPeriod < 0 || c.SMAPeriod == 1 {
		return ValidationError{"criteria.sma_period", "must be >= 2"}
	}
	if c.RSLookbackDays < 0 {
		return ValidationError{"criteria.rs_lookback_days", "must be >= 0"}
	}
	if c.HistoryDays < 0 {
		return ValidationError{"criteria.history_days", "must be >= 0"}
	}
	// 252 거래일 ≈ 365 달력일: 창이 짧으면 RS 계산 불가
	if c.HistoryDays > 0 && c.RSLookbackDays > 0 && c.HistoryDays < c.RSLookbackDays {
		return ValidationError{"criteria.history_days", "must cover rs_lookback_days"}
	}
	if c.FreshnessHours < 0 {
		return ValidationError{"criteria.freshness_hours", "must be >= 0"}
	}

	// === Universes ===
	names := make(map[string]bool)
	for _, d := range universe.Builtins() {
		names[d.Name] = true
	}
	seen := make(map[string]bool)
	for i, d := range p.Universes {
		if err := d.Validate(); err != nil {
			return ValidationError{fmt.Sprintf("universes[%d]", i), err.Error()}
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return ValidationError{fmt.Sprintf("universes[%d].name", i), "duplicate " + d.Name}
		}
		seen[key] = true
		names[key] = true
	}

	// === Schedule ===
	if p.Schedule.RefreshCron != "" {
		if _, err := CronParser.Parse(p.Schedule.RefreshCron); err != nil {
			return ValidationError{"schedule.refresh_cron", err.Error()}
		}
		if p.Schedule.Universe == "" {
			return ValidationError{"schedule.universe", "required when refresh_cron is set"}
		}
	}
	if p.Schedule.Universe != "" && !names[strings.ToLower(p.Schedule.Universe)] {
		return ValidationError{"schedule.universe", "unknown universe " + p.Schedule.Universe}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	if p.Criteria.RelativeStrengthMin < 1 {
		warnings = append(warnings, Warning{
			Code:    "RS_BELOW_MARKET",
			Message: "relative_strength_min < 1.0: passes stocks lagging the benchmark",
		})
	}
	if p.Criteria.EarningsGrowthMin < 0.18 {
		warnings = append(warnings, Warning{
			Code:    "LOW_EARNINGS_GROWTH",
			Message: "earnings_growth_min below the classic 18-25% band",
		})
	}
	if p.Criteria.FreshnessHours > 48 {
		warnings = append(warnings, Warning{
			Code:    "STALE_CACHE",
			Message: "freshness_hours > 48: results may span several sessions",
		})
	}

	return warnings
}
