package sec

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/redis"
)

// SubmissionsResponse is the subset of the EDGAR submissions payload we use
type SubmissionsResponse struct {
	CIK            string  `json:"cik"`
	Name           string  `json:"name"`
	SIC            string  `json:"sic"`
	SICDescription string  `json:"sicDescription"`
	Filings        filings `json:"filings"`
}

type filings struct {
	Recent recentFilings `json:"recent"`
}

// recentFilings is column oriented: index i across slices is one filing
type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

func (c *Client) submissions(ctx context.Context, ticker string) (Company, *SubmissionsResponse, error) {
	company, err := c.LookupCIK(ctx, ticker)
	if err != nil {
		return Company{}, nil, err
	}

	var resp SubmissionsResponse
	url := fmt.Sprintf("%s/submissions/%s.json", c.dataURL, padCIK(company.CIK))
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return Company{}, nil, err
	}
	return company, &resp, nil
}

// CompanyProfile returns name, sector (SIC division) and industry (SIC description)
// Profiles are cached for a day when a Redis cache is attached
func (c *Client) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyMetadata, error) {
	load := func() (interface{}, error) {
		company, resp, err := c.submissions(ctx, ticker)
		if err != nil {
			return nil, err
		}
		name := resp.Name
		if name == "" {
			name = company.Title
		}
		return &contracts.CompanyMetadata{
			Name:     name,
			Sector:   SectorForSIC(resp.SIC),
			Industry: resp.SICDescription,
		}, nil
	}

	if c.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*contracts.CompanyMetadata), nil
	}

	var meta contracts.CompanyMetadata
	if err := c.cache.GetOrSet(ctx, redis.MetadataKey(ticker), &meta, redis.TTLDaily, load); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LatestFilings returns up to limit recent filings of the given form, newest first
// An empty form matches 10-Q and 10-K
func (c *Client) LatestFilings(ctx context.Context, ticker, form string, limit int) ([]contracts.Filing, error) {
	company, resp, err := c.submissions(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	r := resp.Filings.Recent
	var out []contracts.Filing
	for i := range r.AccessionNumber {
		if len(out) >= limit {
			break
		}
		f := at(r.Form, i)
		if !matchesForm(f, form) {
			continue
		}
		filed, _ := time.Parse("2006-01-02", at(r.FilingDate, i))
		out = append(out, contracts.Filing{
			Form:            f,
			FilingDate:      filed,
			ReportDate:      at(r.ReportDate, i),
			AccessionNumber: r.AccessionNumber[i],
			URL:             c.ArchiveURL(company.CIK, r.AccessionNumber[i], at(r.PrimaryDocument, i)),
		})
	}
	return out, nil
}

// ArchiveURL builds the document URL under /Archives/edgar/data
func (c *Client) ArchiveURL(cik int, accession, document string) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s",
		c.baseURL, cik, strings.ReplaceAll(accession, "-", ""), document)
}

func matchesForm(got, want string) bool {
	if want == "" {
		return got == "10-Q" || got == "10-K"
	}
	return strings.EqualFold(got, want)
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// SectorForSIC maps a SIC code to its division name
func SectorForSIC(sic string) string {
	code, err := strconv.Atoi(strings.TrimSpace(sic))
	if err != nil || code <= 0 {
		return ""
	}
	major := code / 100
	switch {
	case major <= 9:
		return "Agriculture, Forestry and Fishing"
	case major <= 14:
		return "Mining"
	case major <= 17:
		return "Construction"
	case major >= 20 && major <= 39:
		return "Manufacturing"
	case major >= 40 && major <= 49:
		return "Transportation and Utilities"
	case major >= 50 && major <= 51:
		return "Wholesale Trade"
	case major >= 52 && major <= 59:
		return "Retail Trade"
	case major >= 60 && major <= 67:
		return "Finance, Insurance and Real Estate"
	case major >= 70 && major <= 89:
		return "Services"
	case major >= 91 && major <= 99:
		return "Public Administration"
	default:
		return ""
	}
}
