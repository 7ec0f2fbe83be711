package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/joelkehle/patent-curation/internal/retryutil"
)

const (
	DefaultRateLimitPerMinute = 10
	defaultHTTPTimeout        = 30 * time.Second
)

type ClientConfig struct {
	APIKey             string
	BaseURL            string
	RateLimitPerMinute int
	HTTPClient         *http.Client
	Retry              retryutil.Policy
}

// Client talks to the trend-lookup HTTP service. Calls are paced by a
// client-side rate limiter, retried with bounded backoff on transient
// failures, and short-circuited by a breaker once the service looks down so
// the remaining keywords in a batch degrade quickly instead of each eating
// the full retry budget.
type Client struct {
	cfg     ClientConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[Series]
}

func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("TRENDS_API_KEY not configured")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("trends base URL not configured")
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retryutil.DefaultPolicy()
	}

	interval := time.Minute / time.Duration(cfg.RateLimitPerMinute)
	breaker := gobreaker.NewCircuitBreaker[Series](gobreaker.Settings{
		Name: "trend-lookup",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: time.Minute,
	})
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		breaker: breaker,
	}, nil
}

type lookupResponse struct {
	Error   string  `json:"error,omitempty"`
	Keyword string  `json:"keyword"`
	Points  []Point `json:"points"`
}

type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string             { return "status code: 429" }
func (e *rateLimitError) RetryAfter() time.Duration { return e.retryAfter }

func (c *Client) Lookup(ctx context.Context, keyword, timeframe string) (Series, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Series{}, err
	}
	return c.breaker.Execute(func() (Series, error) {
		var series Series
		err := retryutil.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
			s, err := c.lookupOnce(ctx, keyword, timeframe)
			if err != nil {
				return err
			}
			series = s
			return nil
		}, isRetryable)
		return series, err
	})
}

func (c *Client) lookupOnce(ctx context.Context, keyword, timeframe string) (Series, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/interest"
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("timeframe", timeframe)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Series{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return Series{}, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return Series{}, &rateLimitError{retryAfter: parseRetryAfter(res.Header.Get("Retry-After"))}
	case res.StatusCode == http.StatusNotFound:
		return Series{}, ErrNoData
	case res.StatusCode >= 400:
		return Series{}, fmt.Errorf("status code: %d body=%s", res.StatusCode, string(b))
	}

	var parsed lookupResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return Series{}, fmt.Errorf("decode lookup response: %w", err)
	}
	if parsed.Error != "" {
		return Series{}, fmt.Errorf("trend service error: %s", parsed.Error)
	}
	if len(parsed.Points) == 0 {
		return Series{}, ErrNoData
	}
	return Series{Keyword: parsed.Keyword, Points: parsed.Points}, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrNoData) {
		return false
	}
	var rl *rateLimitError
	if errors.As(err, &rl) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := err.Error()
	if strings.Contains(msg, "status code: 5") {
		return true
	}
	if strings.Contains(msg, "status code: 4") {
		return false
	}
	// Unclassified transport failures get the retry benefit of the doubt.
	return true
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}
