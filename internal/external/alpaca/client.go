package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	sdk "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/retry"
)

// ErrNoBars is returned when the provider has no bars for the requested window
var ErrNoBars = errors.New("no bars returned")

// ErrNotConfigured is returned when API credentials are missing
var ErrNotConfigured = errors.New("alpaca credentials not configured")

type barsGetter interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Client fetches daily bars from Alpaca Market Data
// ⭐ SSOT: Alpaca 시세 호출은 이 클라이언트에서만
type Client struct {
	md         barsGetter
	feed       marketdata.Feed
	configured bool
	logger     *logger.Logger
}

// NewClient creates a new Alpaca market data client
func NewClient(cfg config.AlpacaConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	md := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.DataURL,
	})
	return &Client{
		md:         md,
		feed:       marketdata.Feed(strings.ToLower(cfg.Feed)),
		configured: cfg.APIKey != "" && cfg.APISecret != "",
		logger:     log.WithComponent("alpaca"),
	}
}

// DailyCloses returns split-adjusted daily closes in [start, end], oldest first
func (c *Client) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	if !c.configured {
		return nil, retry.Permanent(ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := c.md.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Split,
		Start:      start,
		End:        end,
		Feed:       c.feed,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("get bars %s: %w", ticker, err))
	}

	points := toPricePoints(bars)
	if len(points) == 0 {
		return nil, retry.Permanent(fmt.Errorf("%s: %w", ticker, ErrNoBars))
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(points),
	}).Debug("Fetched daily bars")

	return points, nil
}

// toPricePoints converts SDK bars, dropping non-positive closes
func toPricePoints(bars []marketdata.Bar) []contracts.PricePoint {
	points := make([]contracts.PricePoint, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		points = append(points, contracts.PricePoint{
			Date:  b.Timestamp.UTC(),
			Close: b.Close,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// classify maps API status codes onto the retry taxonomy
func classify(err error) error {
	var apiErr *sdk.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= 500:
		return retry.Transient(err)
	case apiErr.StatusCode >= 400:
		// 400/404/422: bad symbol or window, 401/403: credentials
		return retry.Permanent(err)
	default:
		return err
	}
}
