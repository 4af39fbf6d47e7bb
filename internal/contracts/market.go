package contracts

import "time"

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Closes extracts closing prices in order
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// QuarterlyEPS is one reported quarterly EPS figure
type QuarterlyEPS struct {
	PeriodEnd time.Time `json:"period_end"`
	Filed     time.Time `json:"filed"`
	Form      string    `json:"form"`
	Value     float64   `json:"value"`
}

// EarningsPair holds the latest quarter and the same quarter one year earlier
// ⭐ SSOT: EPS 성장률 계산 입력
type EarningsPair struct {
	Current *QuarterlyEPS `json:"current"`
	YearAgo *QuarterlyEPS `json:"year_ago"`
}

// Values returns the pair as optional floats
func (p EarningsPair) Values() (current, yearAgo *float64) {
	if p.Current != nil {
		v := p.Current.Value
		current = &v
	}
	if p.YearAgo != nil {
		v := p.YearAgo.Value
		yearAgo = &v
	}
	return current, yearAgo
}

// CompanyMetadata is descriptive information about a company
type CompanyMetadata struct {
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// Filing is a regulatory filing reference
type Filing struct {
	Form            string    `json:"form"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      string    `json:"report_date,omitempty"`
	AccessionNumber string    `json:"accession_number"`
	URL             string    `json:"url"`
}
