package fetcher

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable matches every *DataUnavailableError
var ErrDataUnavailable = errors.New("data unavailable")

// ErrNoProvider is the cause when no provider is wired for an operation
var ErrNoProvider = errors.New("no provider configured")

// Op names a fetch operation
type Op string

const (
	OpPriceHistory     Op = "price_history"
	OpBenchmarkHistory Op = "benchmark_history"
	OpFinancials       Op = "quarterly_financials"
	OpMetadata         Op = "company_metadata"
)

// DataUnavailableError is returned once a call has failed permanently or spent its attempts
// The orchestrator treats it as a missing input for Ticker only
type DataUnavailableError struct {
	Ticker    string
	Op        Op
	Attempts  int
	Permanent bool
	Err       error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s %s: data unavailable after %d attempt(s): %v", e.Op, e.Ticker, e.Attempts, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDataUnavailable) match
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// IsDataUnavailable reports whether err carries a DataUnavailableError
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}
