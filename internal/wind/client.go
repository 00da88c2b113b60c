package wind

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

const missingMarker = "null"

// Client fetches archived surface observations from the IEM ASOS service
type Client struct {
	httpClient *http.Client
	baseURL    string
	station    string
	maxRetries int
	logger     *logger.Logger
}

// NewClient creates a new ASOS archive client
func NewClient(baseURL, station string, timeout time.Duration, maxRetries int, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		station:    station,
		maxRetries: maxRetries,
		logger:     log.Named("wind-client"),
	}
}

// FetchRange downloads wind observations for the half-open range [from, to).
// Rows with a missing direction or speed are dropped.
func (c *Client) FetchRange(ctx context.Context, from, to time.Time) ([]Observation, error) {
	reqURL, err := c.buildURL(from, to)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Debug("Retrying wind fetch",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		obs, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			return obs, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to fetch wind data after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) buildURL(from, to time.Time) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid wind base URL: %w", err)
	}

	from = from.UTC()
	to = to.UTC()

	q := base.Query()
	q.Set("station", c.station)
	q.Set("data", "drct,sknt")
	q.Set("year1", strconv.Itoa(from.Year()))
	q.Set("month1", strconv.Itoa(int(from.Month())))
	q.Set("day1", strconv.Itoa(from.Day()))
	q.Set("year2", strconv.Itoa(to.Year()))
	q.Set("month2", strconv.Itoa(int(to.Month())))
	q.Set("day2", strconv.Itoa(to.Day()))
	q.Set("tz", "Etc/UTC")
	q.Set("format", "onlycomma")
	q.Set("missing", missingMarker)
	q.Set("latlon", "no")
	base.RawQuery = q.Encode()

	return base.String(), nil
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) ([]Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	obs, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wind CSV: %w", err)
	}
	return obs, nil
}

// ParseCSV parses the ASOS comma format: a header line followed by
// station,valid,drct,sknt rows with "null" for missing values.
func ParseCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var obs []Observation
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue
		}
		if len(record) < 4 {
			continue
		}

		ts, err := time.Parse("2006-01-02 15:04", record[1])
		if err != nil {
			continue
		}
		if record[2] == missingMarker || record[3] == missingMarker {
			continue
		}
		drct, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		sknt, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			continue
		}

		obs = append(obs, Observation{
			Time:         ts.UTC(),
			DirectionDeg: drct,
			SpeedKts:     sknt,
		})
	}

	return obs, nil
}
