package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cartpilot/backend/internal/domain"
)

const (
	maxAttempts      = 3
	maxErrorBodySize = 1024
	maxBodySize      = 2 << 20
)

// Config holds Open Food Facts client settings
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	debug       bool
	logger      *zap.Logger
}

// NewClient creates a new Open Food Facts API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Open Food Facts allows 100 product reads per minute
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60), 10)

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "CartPilot/1.0"
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		userAgent:   userAgent,
		rateLimiter: limiter,
		backoff:     exponentialBackoff,
		logger:      logger,
	}
}

// SetDebug enables per-request debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(msg string, fields ...zap.Field) {
	if c.debug {
		c.logger.Debug(msg, fields...)
	}
}

// exponentialBackoff returns 500ms, 1s, 2s... for attempts 1, 2, 3...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailure, err)
	}
	return resp, nil
}

// GetProduct fetches a product by barcode.
// Transport errors, 429 and 5xx responses are retried with exponential backoff.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.OFFProduct, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	if _, err := url.Parse(reqURL); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, limiterError(ctx, err)
		}

		c.debugLog("requesting product", zap.String("barcode", barcode), zap.Int("attempt", attempt))

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("product lookup request failed",
				zap.String("barcode", barcode), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, domain.ErrProductNotFound

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
			resp.Body.Close()
			c.logger.Warn("product lookup API error",
				zap.String("barcode", barcode),
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)))
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: upstream status %d", domain.ErrRateLimited, resp.StatusCode)
			} else {
				lastErr = fmt.Errorf("%w: status %d", domain.ErrLookupFailure, resp.StatusCode)
			}
			continue

		case resp.StatusCode != http.StatusOK:
			body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrLookupFailure, resp.StatusCode, string(body))
		}

		body, err := readLimitedBody(resp.Body, maxBodySize)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrLookupFailure, err)
			continue
		}

		var envelope domain.OFFProductResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if envelope.Status != 1 {
			c.debugLog("product not found", zap.String("barcode", barcode), zap.String("status", envelope.StatusVerbose))
			return nil, domain.ErrProductNotFound
		}

		if envelope.Product.Code == "" {
			envelope.Product.Code = envelope.Code
		}
		return &envelope.Product, nil
	}

	c.logger.Warn("all product lookup attempts failed", zap.String("barcode", barcode))
	return nil, lastErr
}

// limiterError maps a limiter failure onto the context error it stands for.
// Wait refuses early when the next token would arrive after the deadline, and
// that refusal does not wrap context.DeadlineExceeded.
func limiterError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limiter: %w", context.DeadlineExceeded)
	}
	return fmt.Errorf("rate limiter error: %w", err)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
