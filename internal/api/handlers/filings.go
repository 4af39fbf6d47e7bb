package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/external/sec"
	"github.com/wonny/canslim/pkg/logger"
)

// FilingsHandler lists regulatory filings
type FilingsHandler struct {
	provider contracts.FilingsProvider
	logger   *logger.Logger
}

// NewFilingsHandler creates a new filings handler
func NewFilingsHandler(p contracts.FilingsProvider, log *logger.Logger) *FilingsHandler {
	return &FilingsHandler{provider: p, logger: log}
}

// GetFilings returns the latest filings for a ticker
// GET /api/filings/{ticker}?form=10-Q&limit=5
func (h *FilingsHandler) GetFilings(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	form := strings.ToUpper(r.URL.Query().Get("form"))
	limit := intQuery(r, "limit", 5)
	if limit > 40 {
		limit = 40
	}

	filings, err := h.provider.LatestFilings(r.Context(), ticker, form, limit)
	switch {
	case errors.Is(err, sec.ErrUnknownTicker):
		respondError(w, http.StatusNotFound, "Unknown ticker "+ticker)
		return
	case errors.Is(err, sec.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, "Filings provider is not configured")
		return
	case err != nil:
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch filings")
		respondError(w, http.StatusBadGateway, "Failed to fetch filings")
		return
	}

	if filings == nil {
		filings = []contracts.Filing{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"form":    form,
		"filings": filings,
	})
}
