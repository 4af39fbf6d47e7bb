package universe

import (
	"strings"

	"github.com/wonny/canslim/internal/screening"
)

// clean uppercases and dedupes symbols, keeping those the screener accepts, up to limit
func clean(raw []string, limit int) ([]string, int) {
	out := make([]string, 0, limit)
	seen := make(map[string]bool, len(raw))
	skipped := 0
	for _, s := range raw {
		t := strings.ToUpper(strings.TrimSpace(s))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if !screening.ValidTicker(t) {
			skipped++
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, skipped
}
