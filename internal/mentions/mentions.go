// Package mentions estimates social proof for a keyword by counting search
// hits on discussion platforms via the Google Custom Search API. It is a
// standalone curation aid, not a pipeline stage: a curator runs it against
// the shortlisted keywords to see where a technology is already talked
// about.
package mentions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joelkehle/patent-curation/internal/retryutil"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Platforms maps short platform names to the domain searched with a site:
// restriction.
var Platforms = map[string]string{
	"reddit":        "reddit.com",
	"hackernews":    "news.ycombinator.com",
	"stackoverflow": "stackoverflow.com",
	"github":        "github.com",
	"quora":         "quora.com",
	"medium":        "medium.com",
}

// PlatformNames returns the known platform keys in sorted order.
func PlatformNames() []string {
	names := make([]string, 0, len(Platforms))
	for name := range Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Count struct {
	Platform string
	Domain   string
	Keyword  string
	Total    int64
}

type ClientConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string

	// RequestsPerMinute paces calls against the Custom Search quota.
	// Defaults to 60.
	RequestsPerMinute int

	HTTPClient *http.Client
	Retry      retryutil.Policy
}

type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mentions: API key is required")
	}
	if cfg.EngineID == "" {
		return nil, fmt.Errorf("mentions: search engine ID is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retryutil.DefaultPolicy()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	return &Client{cfg: cfg, http: httpClient, limiter: limiter}, nil
}

// searchResponse carries the only field we need. The API reports
// totalResults as a JSON string, not a number.
type searchResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Check returns the estimated hit count for a keyword on one platform.
// Transient failures (timeouts, 429, 5xx) are retried with backoff.
func (c *Client) Check(ctx context.Context, platform, keyword string) (Count, error) {
	domain, ok := Platforms[platform]
	if !ok {
		return Count{}, fmt.Errorf("unknown platform %q (known: %v)", platform, PlatformNames())
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Count{}, err
	}

	var count Count
	err := retryutil.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		var err error
		count, err = c.checkOnce(ctx, platform, domain, keyword)
		return err
	}, isTransient)
	return count, err
}

func (c *Client) checkOnce(ctx context.Context, platform, domain, keyword string) (Count, error) {
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("cx", c.cfg.EngineID)
	q.Set("q", fmt.Sprintf("site:%s %s", domain, keyword))
	q.Set("num", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Count{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Count{}, fmt.Errorf("mention search for %q on %s: %w", keyword, platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Count{}, err
	}

	var parsed searchResponse
	if resp.StatusCode != http.StatusOK {
		// Error bodies are best-effort JSON; fall back to the status line.
		msg := resp.Status
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return Count{}, fmt.Errorf("mention search for %q on %s: status code: %d %s", keyword, platform, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Count{}, fmt.Errorf("parse search response: %w", err)
	}

	total := int64(0)
	if s := parsed.SearchInformation.TotalResults; s != "" {
		total, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Count{}, fmt.Errorf("parse totalResults %q: %w", s, err)
		}
	}
	return Count{Platform: platform, Domain: domain, Keyword: keyword, Total: total}, nil
}

// CheckAll queries every known platform for one keyword. A failed platform
// lookup fails the whole call; partial pictures mislead more than they help
// here.
func (c *Client) CheckAll(ctx context.Context, keyword string) ([]Count, error) {
	counts := make([]Count, 0, len(Platforms))
	for _, platform := range PlatformNames() {
		count, err := c.Check(ctx, platform, keyword)
		if err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	sortCounts(counts)
	return counts, nil
}

// Compare checks one platform across several keywords and returns the
// counts ordered by total descending.
func (c *Client) Compare(ctx context.Context, platform string, keywords []string) ([]Count, error) {
	counts := make([]Count, 0, len(keywords))
	for _, kw := range keywords {
		count, err := c.Check(ctx, platform, kw)
		if err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	sortCounts(counts)
	return counts, nil
}

func sortCounts(counts []Count) {
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Total > counts[j].Total })
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "status code: 429") || strings.Contains(msg, "status code: 5")
}
