package trends

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joelkehle/patent-curation/internal/retryutil"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		APIKey:             "test-key",
		BaseURL:            baseURL,
		RateLimitPerMinute: 6000,
		Retry:              retryutil.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientLookup(t *testing.T) {
	var gotKey, gotKeyword, gotTimeframe string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotKeyword = r.URL.Query().Get("keyword")
		gotTimeframe = r.URL.Query().Get("timeframe")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"keyword":"pcr machine","points":[{"date":"2025-01-01T00:00:00Z","interest":42}]}`))
	}))
	defer srv.Close()

	series, err := testClient(t, srv.URL).Lookup(context.Background(), "pcr machine", "today 12-m")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotKey != "test-key" || gotKeyword != "pcr machine" || gotTimeframe != "today 12-m" {
		t.Fatalf("unexpected request: key=%q keyword=%q timeframe=%q", gotKey, gotKeyword, gotTimeframe)
	}
	if len(series.Points) != 1 || series.Points[0].Interest != 42 {
		t.Fatalf("unexpected series: %+v", series)
	}
}

func TestClientRetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"keyword":"kw","points":[{"date":"2025-01-01T00:00:00Z","interest":10}]}`))
	}))
	defer srv.Close()

	if _, err := testClient(t, srv.URL).Lookup(context.Background(), "kw", "today 12-m"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestClientNoDataNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Lookup(context.Background(), "obscure", "today 12-m")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no data is not transient)", calls)
	}
}

func TestClientEmptySeriesIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"keyword":"kw","points":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Lookup(context.Background(), "kw", "today 12-m")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "http://localhost"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}
