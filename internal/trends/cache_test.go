package trends

import (
	"path/filepath"
	"testing"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Get("kw", "today 12-m"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("kw", "today 12-m", flatSeries(12, 30))
	got, ok := c.Get("kw", "today 12-m")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got.Points) != 12 {
		t.Fatalf("points = %d, want 12", len(got.Points))
	}

	// Same keyword, different timeframe is a distinct entry.
	if _, ok := c.Get("kw", "today 5-y"); ok {
		t.Fatal("expected miss for different timeframe")
	}
}

func TestSQLiteCacheWriteThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.db")

	c, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	c.Put("kw", "today 12-m", halvesSeries(40, 60))
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A fresh cache over the same file sees the persisted series.
	reopened, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("kw", "today 12-m")
	if !ok {
		t.Fatal("expected persisted hit")
	}
	if len(got.Points) != 12 {
		t.Fatalf("points = %d, want 12", len(got.Points))
	}
	if _, ok := reopened.Get("kw", "today 5-y"); ok {
		t.Fatal("expected miss for different timeframe")
	}
}
