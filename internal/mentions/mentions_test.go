package mentions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/patent-curation/internal/retryutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(ClientConfig{
		APIKey:            "test-key",
		EngineID:          "test-cx",
		BaseURL:           srv.URL,
		RequestsPerMinute: 6000,
		HTTPClient:        srv.Client(),
		Retry:             retryutil.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestCheckParsesStringTotal(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"searchInformation":{"totalResults":"1420"}}`)
	})

	count, err := client.Check(context.Background(), "reddit", "pcr machine")
	if err != nil {
		t.Fatal(err)
	}
	if count.Total != 1420 {
		t.Errorf("Total = %d, want 1420", count.Total)
	}
	if gotQuery != "site:reddit.com pcr machine" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestCheckUnknownPlatform(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for unknown platform")
	})
	if _, err := client.Check(context.Background(), "myspace", "widget"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestCheckAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"Quota exceeded"}}`)
	})
	_, err := client.Check(context.Background(), "github", "widget")
	if err == nil {
		t.Fatal("expected API error")
	}
	if !strings.Contains(err.Error(), "Quota exceeded") {
		t.Errorf("error should carry the API message, got %q", err)
	}
}

func TestCheckRetriesRateLimit(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"Rate limit"}}`)
			return
		}
		fmt.Fprint(w, `{"searchInformation":{"totalResults":"7"}}`)
	})
	count, err := client.Check(context.Background(), "reddit", "widget")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want retry after 429", calls)
	}
	if count.Total != 7 {
		t.Errorf("Total = %d", count.Total)
	}
}

func TestCheckEmptyTotal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"searchInformation":{}}`)
	})
	count, err := client.Check(context.Background(), "quora", "widget")
	if err != nil {
		t.Fatal(err)
	}
	if count.Total != 0 {
		t.Errorf("missing totalResults should count as 0, got %d", count.Total)
	}
}

func TestCompareOrdersByTotal(t *testing.T) {
	totals := map[string]string{"alpha": "10", "beta": "300", "gamma": "42"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		for kw, total := range totals {
			if strings.HasSuffix(q, kw) {
				fmt.Fprintf(w, `{"searchInformation":{"totalResults":"%s"}}`, total)
				return
			}
		}
		t.Errorf("unexpected query %q", q)
	})

	counts, err := client.Compare(context.Background(), "hackernews", []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatal(err)
	}
	got := []string{counts[0].Keyword, counts[1].Keyword, counts[2].Keyword}
	want := []string{"beta", "gamma", "alpha"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{EngineID: "cx"}); err == nil {
		t.Error("missing API key should be rejected")
	}
	if _, err := NewClient(ClientConfig{APIKey: "k"}); err == nil {
		t.Error("missing engine ID should be rejected")
	}
}
