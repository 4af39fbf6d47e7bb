package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/canslim/internal/api/handlers"
	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/external/sec"
	"github.com/wonny/canslim/internal/screening"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/internal/universe"
	"github.com/wonny/canslim/pkg/logger"
)

type fakeScreener struct {
	cached map[string]*contracts.Outcome
}

func (f *fakeScreener) ScreenBatch(ctx context.Context, tickers []string) (*contracts.BatchResult, error) {
	return f.ScreenBatchFunc(ctx, tickers, nil)
}

func (f *fakeScreener) ScreenBatchFunc(ctx context.Context, tickers []string, fn func(contracts.Outcome)) (*contracts.BatchResult, error) {
	valid, rejected := screening.Normalize(tickers)
	if len(valid) == 0 {
		return nil, &screening.ValidationError{Rejected: rejected}
	}
	batch := &contracts.BatchResult{BatchID: "batch-1", Rejected: rejected}
	for i, t := range valid {
		status := contracts.StatusPass
		if i%2 == 1 {
			status = contracts.StatusFail
		}
		out := contracts.Outcome{
			Ticker: t,
			Status: status,
			Result: &contracts.ScreeningResult{Ticker: t, RelativeStrength: contracts.Float(1.2)},
		}
		batch.Outcomes = append(batch.Outcomes, out)
		if fn != nil {
			fn(out)
		}
	}
	return batch, nil
}

func (f *fakeScreener) Lookup(ctx context.Context, ticker string) (*contracts.Outcome, error) {
	return f.cached[ticker], nil
}

type fakeFilings struct{}

func (fakeFilings) LatestFilings(ctx context.Context, ticker, form string, limit int) ([]contracts.Filing, error) {
	if ticker != "AAPL" {
		return nil, sec.ErrUnknownTicker
	}
	return []contracts.Filing{{Form: "10-Q", AccessionNumber: "0000320193-24-000069"}}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Nop()
	scr := &fakeScreener{cached: map[string]*contracts.Outcome{
		"AAPL": {Ticker: "AAPL", Status: contracts.StatusPass, FromCache: true},
	}}
	resolver, err := universe.NewResolver(nil, log, 0,
		universe.Definition{Name: "watchlist", Kind: universe.KindStatic, Tickers: []string{"AAPL", "MSFT"}})
	require.NoError(t, err)

	screen := handlers.NewScreenHandler(scr, resolver, log)
	return NewRouter(Handlers{
		Screen:  screen,
		Filings: handlers.NewFilingsHandler(fakeFilings{}, log),
		Stream:  handlers.NewStreamHandler(screen, log, []string{"https://dashboard.example.com"}),
	}, telemetry.New(), log)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canslim_http_request_duration_seconds")
}

func TestScreenEndpoint(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"tickers", `{"tickers":["AAPL","aapl","INVALID123!","MSFT"]}`, http.StatusOK, `"batch_id":"batch-1"`},
		{"universe", `{"universe":"watchlist"}`, http.StatusOK, `"ticker":"MSFT"`},
		{"no valid tickers", `{"tickers":["INVALID123!",""]}`, http.StatusBadRequest, `"rejected"`},
		{"empty body", `{}`, http.StatusBadRequest, "no valid tickers"},
		{"unknown universe", `{"universe":"ftse"}`, http.StatusNotFound, "unknown universe"},
		{"bad json", `{"tickers":`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/screen", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestScreenResponseShape(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/screen", `{"tickers":["AAPL","aapl","MSFT"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		BatchID  string                     `json:"batch_id"`
		Outcomes []contracts.Outcome        `json:"outcomes"`
		Rejected []contracts.RejectedTicker `json:"rejected"`
		Counts   map[string]int             `json:"counts"`
		Passing  []contracts.Outcome        `json:"passing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Outcomes, 2)
	assert.Len(t, resp.Rejected, 1)
	assert.Equal(t, 1, resp.Counts["PASS"])
	assert.Equal(t, 1, resp.Counts["FAIL"])
	require.Len(t, resp.Passing, 1)
	assert.Equal(t, "AAPL", resp.Passing[0].Ticker)
}

func TestResultsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/results/aapl", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"from_cache":true`)

	rec = do(t, router, http.MethodGet, "/api/results/MSFT", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/results/TOOLONG", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilingsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/filings/AAPL?form=10-q&limit=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"form":"10-Q"`)
	assert.Contains(t, rec.Body.String(), "0000320193-24-000069")

	rec = do(t, router, http.MethodGet, "/api/filings/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUniversesEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/api/universes", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "watchlist")
	assert.Contains(t, rec.Body.String(), "sp500")
}

func TestStreamEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/screen?tickers=AAPL,MSFT"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msgs []handlers.StreamMessage
	for {
		var msg handlers.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		msgs = append(msgs, msg)
	}

	require.Len(t, msgs, 3)
	assert.Equal(t, handlers.MessageOutcome, msgs[0].Type)
	assert.Equal(t, "AAPL", msgs[0].Outcome.Ticker)
	assert.Equal(t, "MSFT", msgs[1].Outcome.Ticker)
	assert.Equal(t, handlers.MessageSummary, msgs[2].Type)
	require.NotNil(t, msgs[2].Summary)
	assert.Len(t, msgs[2].Summary.Outcomes, 2)
}

func TestStreamOriginCheck(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/screen?tickers=AAPL"

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"no origin header", "", true},
		{"same host", srv.URL, true},
		{"configured origin", "https://dashboard.example.com", true},
		{"configured origin any case", "HTTPS://Dashboard.Example.com", true},
		{"foreign page", "https://evil.example.net", false},
		{"malformed origin", "://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestStreamRejectsEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/screen?tickers=BRK.B"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg handlers.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, handlers.MessageError, msg.Type)
	assert.Len(t, msg.Rejected, 1)
}
