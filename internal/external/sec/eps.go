package sec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/httputil"
	"github.com/wonny/canslim/pkg/retry"
)

var (
	// ErrNoEarnings is returned when no quarterly EPS is reported
	ErrNoEarnings = errors.New("no quarterly EPS reported")
	// ErrNoPriorYear is returned when the year-ago quarter is absent (recent listings)
	ErrNoPriorYear = errors.New("no year-ago quarter reported")
)

// EPS concepts, most specific first
var epsConcepts = []string{"EarningsPerShareDiluted", "EarningsPerShareBasic"}

// ConceptResponse is the companyconcept XBRL payload
type ConceptResponse struct {
	CIK    int                    `json:"cik"`
	Tag    string                 `json:"tag"`
	Entity string                 `json:"entityName"`
	Units  map[string][]FactValue `json:"units"`
}

// FactValue is one reported value of a concept
type FactValue struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Frame string  `json:"frame"`
}

const (
	quarterMinDays = 80
	quarterMaxDays = 100
	yearAgoMinDays = 335
	yearAgoMaxDays = 395
)

// QuarterlyEPS returns the latest quarterly EPS and the same quarter one year earlier
func (c *Client) QuarterlyEPS(ctx context.Context, ticker string) (contracts.EarningsPair, error) {
	company, err := c.LookupCIK(ctx, ticker)
	if err != nil {
		return contracts.EarningsPair{}, err
	}

	var lastErr error
	for _, concept := range epsConcepts {
		url := fmt.Sprintf("%s/api/xbrl/companyconcept/%s/us-gaap/%s.json", c.dataURL, padCIK(company.CIK), concept)

		var resp ConceptResponse
		if err := c.http.GetJSON(ctx, url, &resp); err != nil {
			var serr *httputil.StatusError
			if errors.As(err, &serr) && serr.StatusCode == http.StatusNotFound {
				lastErr = err
				continue
			}
			return contracts.EarningsPair{}, err
		}

		pair, err := SelectEarningsPair(resp.Units["USD/shares"])
		if errors.Is(err, ErrNoEarnings) {
			lastErr = err
			continue
		}
		if err != nil {
			return contracts.EarningsPair{}, retry.Permanent(fmt.Errorf("%s: %w", ticker, err))
		}

		c.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"concept":  concept,
			"current":  pair.Current.Value,
			"year_ago": pair.YearAgo.Value,
		}).Debug("Selected EPS pair")
		return pair, nil
	}

	if lastErr == nil {
		lastErr = ErrNoEarnings
	}
	return contracts.EarningsPair{}, retry.Permanent(fmt.Errorf("%s: %w", ticker, lastErr))
}

// SelectEarningsPair picks the latest quarterly fact and its year-ago counterpart
// Facts restated in later filings keep the most recently filed value
func SelectEarningsPair(facts []FactValue) (contracts.EarningsPair, error) {
	byEnd := make(map[time.Time]contracts.QuarterlyEPS)
	for _, f := range facts {
		start, err1 := time.Parse("2006-01-02", f.Start)
		end, err2 := time.Parse("2006-01-02", f.End)
		if err1 != nil || err2 != nil {
			continue
		}
		days := int(end.Sub(start).Hours() / 24)
		if days < quarterMinDays || days > quarterMaxDays {
			continue
		}
		filed, _ := time.Parse("2006-01-02", f.Filed)

		q := contracts.QuarterlyEPS{PeriodEnd: end, Filed: filed, Form: f.Form, Value: f.Val}
		if prev, ok := byEnd[end]; ok && !filed.After(prev.Filed) {
			continue
		}
		byEnd[end] = q
	}

	if len(byEnd) == 0 {
		return contracts.EarningsPair{}, ErrNoEarnings
	}

	quarters := make([]contracts.QuarterlyEPS, 0, len(byEnd))
	for _, q := range byEnd {
		quarters = append(quarters, q)
	}
	sort.Slice(quarters, func(i, j int) bool {
		return quarters[i].PeriodEnd.After(quarters[j].PeriodEnd)
	})

	current := quarters[0]
	pair := contracts.EarningsPair{Current: &current}

	best := -1
	for i, q := range quarters[1:] {
		gap := int(current.PeriodEnd.Sub(q.PeriodEnd).Hours() / 24)
		if gap < yearAgoMinDays || gap > yearAgoMaxDays {
			continue
		}
		if best < 0 || abs(gap-365) < abs(int(current.PeriodEnd.Sub(quarters[best+1].PeriodEnd).Hours()/24)-365) {
			best = i
		}
	}
	if best < 0 {
		return pair, ErrNoPriorYear
	}
	yearAgo := quarters[best+1]
	pair.YearAgo = &yearAgo
	return pair, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
