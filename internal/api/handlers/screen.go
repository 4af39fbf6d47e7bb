package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/screening"
	"github.com/wonny/canslim/internal/universe"
	"github.com/wonny/canslim/pkg/logger"
)

// Screener is the orchestrator surface used by the API
type Screener interface {
	ScreenBatch(ctx context.Context, tickers []string) (*contracts.BatchResult, error)
	ScreenBatchFunc(ctx context.Context, tickers []string, fn func(contracts.Outcome)) (*contracts.BatchResult, error)
	Lookup(ctx context.Context, ticker string) (*contracts.Outcome, error)
}

// UniverseResolver resolves universe names
type UniverseResolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
	Names() []string
}

// ScreenHandler handles screening endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener Screener
	resolver UniverseResolver
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(s Screener, r UniverseResolver, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{screener: s, resolver: r, logger: log}
}

// ScreenRequest is the body of POST /api/screen; tickers wins over universe
type ScreenRequest struct {
	Tickers  []string `json:"tickers"`
	Universe string   `json:"universe"`
}

// ScreenResponse is a batch plus its summary
type ScreenResponse struct {
	*contracts.BatchResult
	Counts  map[contracts.Status]int `json:"counts"`
	Passing []contracts.Outcome      `json:"passing"`
	Partial bool                     `json:"partial,omitempty"`
}

func newScreenResponse(b *contracts.BatchResult, partial bool) ScreenResponse {
	passing := b.Passing()
	if passing == nil {
		passing = []contracts.Outcome{}
	}
	return ScreenResponse{BatchResult: b, Counts: b.Counts(), Passing: passing, Partial: partial}
}

// Screen runs a batch
// POST /api/screen {"tickers":["AAPL","MSFT"]} or {"universe":"dow"}
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tickers, status, err := h.tickers(r.Context(), req.Tickers, req.Universe)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	batch, err := h.screener.ScreenBatch(r.Context(), tickers)
	var verr *screening.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    verr.Error(),
			"rejected": verr.Rejected,
		})
	case err != nil && batch != nil:
		h.logger.WithError(err).Warn("Screening batch interrupted")
		respondJSON(w, http.StatusServiceUnavailable, newScreenResponse(batch, true))
	case err != nil:
		h.logger.WithError(err).Error("Screening batch failed")
		respondError(w, http.StatusInternalServerError, "Failed to run screen")
	default:
		respondJSON(w, http.StatusOK, newScreenResponse(batch, false))
	}
}

// tickers picks explicit tickers or resolves the universe
func (h *ScreenHandler) tickers(ctx context.Context, explicit []string, name string) ([]string, int, error) {
	if len(explicit) > 0 || name == "" {
		return explicit, http.StatusOK, nil
	}
	if h.resolver == nil {
		return nil, http.StatusBadRequest, errors.New("universes are not configured")
	}
	tickers, err := h.resolver.Resolve(ctx, name)
	switch {
	case errors.Is(err, universe.ErrUnknownUniverse):
		return nil, http.StatusNotFound, err
	case err != nil:
		h.logger.WithError(err).WithField("universe", name).Error("Failed to resolve universe")
		return nil, http.StatusBadGateway, errors.New("failed to load universe " + name)
	}
	return tickers, http.StatusOK, nil
}

// GetResult returns the fresh cached result for a ticker
// GET /api/results/{ticker}
func (h *ScreenHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["ticker"]))
	if !screening.ValidTicker(ticker) {
		respondError(w, http.StatusBadRequest, "Invalid ticker")
		return
	}

	out, err := h.screener.Lookup(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to read cached result")
		respondError(w, http.StatusInternalServerError, "Failed to read cached result")
		return
	}
	if out == nil {
		respondError(w, http.StatusNotFound, "No fresh result for "+ticker)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// ListUniverses returns the known universe names
// GET /api/universes
func (h *ScreenHandler) ListUniverses(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.resolver != nil {
		names = h.resolver.Names()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"universes": names})
}
