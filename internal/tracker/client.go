package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// Client is responsible for fetching position reports from the live feed
type Client struct {
	httpClient *http.Client
	feedURL    string
	maxRetries int
	logger     *logger.Logger
}

// NewClient creates a new feed client. feedURL must contain a single %s
// placeholder for the bounds string.
func NewClient(feedURL string, timeout time.Duration, maxRetries int, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		feedURL:    feedURL,
		maxRetries: maxRetries,
		logger:     log.Named("tracker-client"),
	}
}

// FetchPings fetches the current feed snapshot for the given bounds and
// converts it to pings. HTTP 429 responses honor the Retry-After header;
// other failures retry with exponential backoff up to maxRetries.
func (c *Client) FetchPings(ctx context.Context, bounds string) ([]Ping, error) {
	urlStr := fmt.Sprintf(c.feedURL, bounds)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying feed fetch",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		data, retryAfter, err := c.fetchOnce(ctx, urlStr)
		if err != nil {
			lastErr = err
			if retryAfter > 0 {
				c.logger.Warn("Feed rate limited, honoring Retry-After",
					logger.Duration("retry_after", retryAfter))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryAfter):
				}
			}
			continue
		}

		pings := make([]Ping, 0, len(data.Flights))
		for _, f := range data.Flights {
			pings = append(pings, f.ToPing())
		}

		c.logger.Debug("Fetched feed snapshot",
			logger.String("bounds", bounds),
			logger.Int("flight_count", len(pings)))
		return pings, nil
	}

	return nil, fmt.Errorf("all %d feed fetch attempts failed: %w", c.maxRetries+1, lastErr)
}

// fetchOnce performs a single feed request. On 429 it returns the requested
// Retry-After duration alongside the error.
func (c *Client) fetchOnce(ctx context.Context, urlStr string) (*RawFeedData, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, fmt.Errorf("feed rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var data RawFeedData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, 0, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &data, 0, nil
}
