package sec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/httputil"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/redis"
	"github.com/wonny/canslim/pkg/retry"
)

var (
	// ErrNotConfigured is returned when SEC_API_USER_AGENT lacks a contact email
	ErrNotConfigured = errors.New("SEC user agent not configured")
	// ErrUnknownTicker is returned when EDGAR has no CIK for a ticker
	ErrUnknownTicker = errors.New("ticker not found in EDGAR")
)

// Client handles communication with SEC EDGAR
// ⭐ SSOT: EDGAR API 호출은 이 클라이언트에서만
type Client struct {
	http       *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	dataURL    string
	configured bool

	mu      sync.Mutex
	tickers map[string]Company
}

// Company is one entry of the EDGAR ticker map
type Company struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// NewClient creates a new EDGAR client
// httpClient should not retry on its own; the fetcher owns the retry policy
func NewClient(cfg config.SECConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	httpClient.WithHeader("User-Agent", ua).
		WithHeader("Accept", "application/json")

	return &Client{
		http:       httpClient,
		logger:     log.WithComponent("sec"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		dataURL:    strings.TrimRight(cfg.DataURL, "/"),
		configured: ua != "" && strings.Contains(ua, "@"),
	}
}

// WithCache shares the ticker map through Redis
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// LookupCIK resolves a ticker to its company entry
func (c *Client) LookupCIK(ctx context.Context, ticker string) (Company, error) {
	if !c.configured {
		return Company{}, retry.Permanent(ErrNotConfigured)
	}

	tickers, err := c.tickerMap(ctx)
	if err != nil {
		return Company{}, err
	}

	company, ok := tickers[strings.ToUpper(ticker)]
	if !ok {
		return Company{}, retry.Permanent(fmt.Errorf("%s: %w", ticker, ErrUnknownTicker))
	}
	return company, nil
}

// tickerMap loads company_tickers.json once per process
func (c *Client) tickerMap(ctx context.Context) (map[string]Company, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tickers != nil {
		return c.tickers, nil
	}

	load := func() (interface{}, error) {
		var raw map[string]Company
		if err := c.http.GetJSON(ctx, c.baseURL+"/files/company_tickers.json", &raw); err != nil {
			return nil, fmt.Errorf("load ticker map: %w", err)
		}
		byTicker := make(map[string]Company, len(raw))
		for _, entry := range raw {
			byTicker[strings.ToUpper(entry.Ticker)] = entry
		}
		return byTicker, nil
	}

	var tickers map[string]Company
	if c.cache != nil {
		if err := c.cache.GetOrSet(ctx, redis.TickerMapKey(), &tickers, redis.TTLDaily, load); err != nil {
			return nil, err
		}
	} else {
		v, err := load()
		if err != nil {
			return nil, err
		}
		tickers = v.(map[string]Company)
	}

	c.logger.WithField("count", len(tickers)).Debug("Loaded EDGAR ticker map")
	c.tickers = tickers
	return tickers, nil
}

func padCIK(cik int) string {
	return fmt.Sprintf("CIK%010d", cik)
}
