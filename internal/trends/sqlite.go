package trends

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteCache persists looked-up series across runs with write-through
// semantics: reads hit an embedded in-memory cache first, then the database;
// writes land in both. Useful when a curation batch is re-run after a
// partial failure: already-fetched keywords cost nothing the second time.
type SQLiteCache struct {
	inner *MemoryCache
	db    *sqlx.DB
	mu    sync.Mutex
}

const sqliteCacheSchema = `
CREATE TABLE IF NOT EXISTS trend_series (
	cache_key  TEXT PRIMARY KEY,
	keyword    TEXT NOT NULL,
	timeframe  TEXT NOT NULL,
	points     TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
`

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open trend cache db: %w", err)
	}
	if _, err := db.Exec(sqliteCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init trend cache schema: %w", err)
	}
	return &SQLiteCache{inner: NewMemoryCache(), db: db}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Get(keyword, timeframe string) (Series, bool) {
	if s, ok := c.inner.Get(keyword, timeframe); ok {
		return s, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var pointsJSON string
	err := c.db.Get(&pointsJSON, `SELECT points FROM trend_series WHERE cache_key = ?`, cacheKey(keyword, timeframe))
	if err == sql.ErrNoRows {
		return Series{}, false
	}
	if err != nil {
		return Series{}, false
	}

	var points []Point
	if err := json.Unmarshal([]byte(pointsJSON), &points); err != nil {
		return Series{}, false
	}
	series := Series{Keyword: keyword, Points: points}
	c.inner.Put(keyword, timeframe, series)
	return series, true
}

func (c *SQLiteCache) Put(keyword, timeframe string, series Series) {
	c.inner.Put(keyword, timeframe, series)

	c.mu.Lock()
	defer c.mu.Unlock()

	pointsJSON, err := json.Marshal(series.Points)
	if err != nil {
		return
	}
	_, _ = c.db.Exec(
		`INSERT INTO trend_series (cache_key, keyword, timeframe, points, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET points = excluded.points, fetched_at = excluded.fetched_at`,
		cacheKey(keyword, timeframe), keyword, timeframe, string(pointsJSON), time.Now().UTC().Format(time.RFC3339),
	)
}
