package sec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/httputil"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/retry"
)

const tickersJSON = `{
  "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
  "1": {"cik_str": 9999999, "ticker": "NEW", "title": "New Listing Corp"}
}`

const aaplEPS = `{
  "cik": 320193, "tag": "EarningsPerShareDiluted", "entityName": "Apple Inc.",
  "units": {"USD/shares": [
    {"start": "2022-09-25", "end": "2023-09-30", "val": 6.13, "form": "10-K", "filed": "2023-11-03"},
    {"start": "2023-04-02", "end": "2023-07-01", "val": 1.26, "form": "10-Q", "filed": "2023-08-04"},
    {"start": "2023-12-31", "end": "2024-03-30", "val": 1.53, "form": "10-Q", "filed": "2024-05-03"},
    {"start": "2024-03-31", "end": "2024-06-29", "val": 1.40, "form": "10-Q", "filed": "2024-08-02"},
    {"start": "2023-04-02", "end": "2023-07-01", "val": 1.26, "form": "10-Q", "filed": "2024-08-02"}
  ]}
}`

const newEPS = `{
  "cik": 9999999, "tag": "EarningsPerShareDiluted",
  "units": {"USD/shares": [
    {"start": "2024-03-31", "end": "2024-06-29", "val": 0.12, "form": "10-Q", "filed": "2024-08-02"}
  ]}
}`

const aaplSubmissions = `{
  "cik": "320193", "name": "Apple Inc.", "sic": "3571", "sicDescription": "Electronic Computers",
  "filings": {"recent": {
    "accessionNumber": ["0000320193-24-000081", "0000320193-24-000079", "0000320193-24-000069"],
    "filingDate": ["2024-08-02", "2024-07-01", "2024-05-03"],
    "reportDate": ["2024-06-29", "", "2024-03-30"],
    "form": ["10-Q", "8-K", "10-Q"],
    "primaryDocument": ["aapl-20240629.htm", "d8k.htm", "aapl-20240330.htm"]
  }}
}`

type edgarServer struct {
	*httptest.Server
	tickerLoads int32
	userAgent   atomic.Value
}

func newEdgarServer(t *testing.T) *edgarServer {
	t.Helper()
	s := &edgarServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.tickerLoads, 1)
		s.userAgent.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(tickersJSON))
	})
	mux.HandleFunc("/api/xbrl/companyconcept/CIK0000320193/us-gaap/EarningsPerShareDiluted.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(aaplEPS))
	})
	mux.HandleFunc("/api/xbrl/companyconcept/CIK0009999999/us-gaap/EarningsPerShareDiluted.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newEPS))
	})
	mux.HandleFunc("/submissions/CIK0000320193.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(aaplSubmissions))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, srv *edgarServer, ua string) *Client {
	t.Helper()
	cfg := config.SECConfig{UserAgent: ua, BaseURL: srv.URL, DataURL: srv.URL + "/"}
	return NewClient(cfg, httputil.NewWithTimeout(logger.Nop(), 2*time.Second), logger.Nop())
}

func TestQuarterlyEPS(t *testing.T) {
	srv := newEdgarServer(t)
	c := newTestClient(t, srv, "Jane Doe jane@example.com")

	pair, err := c.QuarterlyEPS(context.Background(), "aapl")
	require.NoError(t, err)
	require.NotNil(t, pair.Current)
	require.NotNil(t, pair.YearAgo)
	assert.Equal(t, 1.40, pair.Current.Value)
	assert.Equal(t, 1.26, pair.YearAgo.Value)
	assert.Equal(t, "2023-07-01", pair.YearAgo.PeriodEnd.Format("2006-01-02"))

	assert.Equal(t, "Jane Doe jane@example.com", srv.userAgent.Load())
}

func TestQuarterlyEPS_NoPriorYearIsPermanent(t *testing.T) {
	srv := newEdgarServer(t)
	c := newTestClient(t, srv, "Jane Doe jane@example.com")

	_, err := c.QuarterlyEPS(context.Background(), "NEW")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPriorYear)
	assert.True(t, retry.IsPermanent(err))
}

func TestLookupCIK(t *testing.T) {
	srv := newEdgarServer(t)
	c := newTestClient(t, srv, "Jane Doe jane@example.com")
	ctx := context.Background()

	company, err := c.LookupCIK(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 320193, company.CIK)

	_, err = c.LookupCIK(ctx, "ZZZZ")
	assert.ErrorIs(t, err, ErrUnknownTicker)
	assert.True(t, retry.IsPermanent(err))

	assert.Equal(t, int32(1), atomic.LoadInt32(&srv.tickerLoads), "ticker map is loaded once")
}

func TestNotConfigured(t *testing.T) {
	srv := newEdgarServer(t)
	c := newTestClient(t, srv, "no-email-here")

	_, err := c.QuarterlyEPS(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.True(t, retry.IsPermanent(err))
	assert.Zero(t, atomic.LoadInt32(&srv.tickerLoads))
}

func TestCompanyProfile(t *testing.T) {
	srv := newEdgarServer(t)
	c := newTestClient(t, srv, "Jane Doe jane@example.com")

	meta, err := c.CompanyProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", meta.Name)
	assert.Equal(t, "Manufacturing", meta.Sector)
	assert.Equal(t, "Electronic Computers", meta.Industry)
}

func TestLatestFilings(t *testing.T) {
	srv := newEdgarServer(t)
	c := newTestClient(t, srv, "Jane Doe jane@example.com")

	filings, err := c.LatestFilings(context.Background(), "AAPL", "10-Q", 5)
	require.NoError(t, err)
	require.Len(t, filings, 2)
	assert.Equal(t, "0000320193-24-000081", filings[0].AccessionNumber)
	assert.Equal(t, "2024-08-02", filings[0].FilingDate.Format("2006-01-02"))
	assert.True(t, strings.HasSuffix(filings[0].URL, "/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm"))

	limited, err := c.LatestFilings(context.Background(), "AAPL", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSelectEarningsPair(t *testing.T) {
	t.Run("ignores annual and keeps latest restatement", func(t *testing.T) {
		pair, err := SelectEarningsPair([]FactValue{
			{Start: "2023-01-01", End: "2023-03-31", Val: 1.00, Filed: "2023-05-01"},
			{Start: "2023-01-01", End: "2023-03-31", Val: 1.05, Filed: "2024-05-01"},
			{Start: "2023-01-01", End: "2023-12-31", Val: 4.00, Filed: "2024-02-01"},
			{Start: "2024-01-01", End: "2024-03-31", Val: 1.30, Filed: "2024-05-01"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1.30, pair.Current.Value)
		assert.Equal(t, 1.05, pair.YearAgo.Value)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := SelectEarningsPair(nil)
		assert.ErrorIs(t, err, ErrNoEarnings)
	})

	t.Run("malformed dates skipped", func(t *testing.T) {
		_, err := SelectEarningsPair([]FactValue{{Start: "bad", End: "2024-03-31", Val: 1}})
		assert.ErrorIs(t, err, ErrNoEarnings)
	})
}

func TestSectorForSIC(t *testing.T) {
	tests := []struct {
		sic  string
		want string
	}{
		{"3571", "Manufacturing"},
		{"7372", "Services"},
		{"6022", "Finance, Insurance and Real Estate"},
		{"1311", "Mining"},
		{"4911", "Transportation and Utilities"},
		{"5961", "Retail Trade"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.sic, func(t *testing.T) {
			assert.Equal(t, tt.want, SectorForSIC(tt.sic))
		})
	}
}
