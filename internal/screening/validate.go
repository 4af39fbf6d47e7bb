package screening

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/canslim/internal/contracts"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)

// ErrNoValidTickers matches a *ValidationError
var ErrNoValidTickers = errors.New("no valid tickers")

// Rejection reasons
const (
	ReasonEmpty     = "empty ticker"
	ReasonFormat    = "invalid format: expected 1-5 letters or digits"
	ReasonDuplicate = "duplicate"
)

// ValidationError is returned when a batch has no valid ticker at all
type ValidationError struct {
	Rejected []contracts.RejectedTicker
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d input(s) rejected", ErrNoValidTickers, len(e.Rejected))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrNoValidTickers
}

// ValidTicker reports whether s is already a normalized ticker
func ValidTicker(s string) bool {
	return tickerPattern.MatchString(s)
}

// Normalize trims, uppercases, validates and de-duplicates tickers, keeping first-seen order
func Normalize(inputs []string) ([]string, []contracts.RejectedTicker) {
	valid := make([]string, 0, len(inputs))
	rejected := make([]contracts.RejectedTicker, 0)
	seen := make(map[string]bool, len(inputs))

	for _, in := range inputs {
		t := strings.ToUpper(strings.TrimSpace(in))
		switch {
		case t == "":
			rejected = append(rejected, contracts.RejectedTicker{Input: in, Reason: ReasonEmpty})
		case !tickerPattern.MatchString(t):
			rejected = append(rejected, contracts.RejectedTicker{Input: in, Reason: ReasonFormat})
		case seen[t]:
			rejected = append(rejected, contracts.RejectedTicker{Input: in, Reason: fmt.Sprintf("%s of %s", ReasonDuplicate, t)})
		default:
			seen[t] = true
			valid = append(valid, t)
		}
	}
	return valid, rejected
}
