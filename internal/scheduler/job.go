package scheduler

import (
	"context"
	"time"
)

// historyLimit bounds the per-job run log
const historyLimit = 100

// Job is a unit of periodic work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a cron expression with a leading seconds field, e.g. "0 30 16 * * 1-5"
	Schedule() string
}

// JobResult records one execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent results, oldest first
type JobHistory struct {
	Results []JobResult
}

// Add appends r, dropping the oldest entry past historyLimit
func (h *JobHistory) Add(r JobResult) {
	h.Results = append(h.Results, r)
	if over := len(h.Results) - historyLimit; over > 0 {
		h.Results = append([]JobResult(nil), h.Results[over:]...)
	}
}

// Latest returns up to n most recent results
func (h *JobHistory) Latest(n int) []JobResult {
	if n <= 0 {
		return nil
	}
	if n > len(h.Results) {
		n = len(h.Results)
	}
	return h.Results[len(h.Results)-n:]
}

// Stats folds the history into counters and last-run times
func (h *JobHistory) Stats(name, schedule string) JobStats {
	st := JobStats{JobName: name, Schedule: schedule, TotalRuns: len(h.Results)}
	for i := range h.Results {
		started := h.Results[i].StartTime
		st.LastRun = &started
		if h.Results[i].Success {
			st.SuccessCount++
			st.LastSuccess = &started
		} else {
			st.FailureCount++
			st.LastFailure = &started
		}
	}
	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalRuns)
	}
	return st
}

// JobStats summarises a job's history
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
