package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/retry"
)

// Client is an HTTP client wrapper with status classification, optional retry and logging
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	headers     http.Header
	retryPolicy *retry.Policy
	limiter     Limiter
}

// Limiter gates outgoing requests
type Limiter interface {
	Wait(ctx context.Context) error
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Fetch.Timeout > 0 {
		timeout = cfg.Fetch.Timeout
	}
	return NewWithTimeout(log, timeout)
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(log *logger.Logger, timeout time.Duration) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		headers:    make(http.Header),
	}
}

// WithHeader sets a header sent on every request
func (c *Client) WithHeader(key, value string) *Client {
	c.headers.Set(key, value)
	return c
}

// WithRetry retries transient failures under p
// Leave unset when the caller applies its own policy
func (c *Client) WithRetry(p retry.Policy) *Client {
	c.retryPolicy = &p
	return c
}

// WithRateLimiter sets the rate limiter for this client
func (c *Client) WithRateLimiter(l Limiter) *Client {
	c.limiter = l
	return c
}

// Get performs a GET request and returns the body of a 2xx response
// Non-2xx responses come back as *StatusError, classified for retry
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.retryPolicy == nil {
		return c.get(ctx, url)
	}
	return retry.Value(ctx, *c.retryPolicy, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, url)
	})
}

// GetJSON performs a GET request and decodes the JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return retry.Permanent(fmt.Errorf("decode response from %s: %w", url, err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create GET request: %w", err))
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	startTime := time.Now()
	c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    url,
	}).Debug("HTTP request started")

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Warn("HTTP request failed")
		return nil, retry.Transient(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.WithFields(map[string]interface{}{
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{StatusCode: resp.StatusCode, URL: url, Body: truncate(string(body), 256)}
		if IsRetryableError(resp.StatusCode) {
			return nil, retry.Transient(serr)
		}
		return nil, retry.Permanent(serr)
	}

	return body, nil
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors, 429 Too Many Requests and 408 Request Timeout
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests || statusCode == http.StatusRequestTimeout
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
