// Package config loads and validates the curation run configuration. It
// uses koanf to overlay an optional YAML file on top of documented
// defaults; secrets stay in environment variables and never appear in the
// file.
package config

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/joelkehle/patent-curation/internal/curation"
	"github.com/joelkehle/patent-curation/internal/trends"
)

// Config holds one curation run's settings.
type Config struct {
	// InputCSV is the source patent table. Usually set by flag, but the
	// file may pin it for repeatable runs.
	InputCSV string `koanf:"input_csv"`

	// OutputDir receives the exported curation spreadsheet.
	OutputDir string `koanf:"output_dir"`

	// TopN is how many candidates survive the first scoring pass.
	TopN int `koanf:"top_n"`

	// Columns remaps source-table headers when the export does not come
	// from Lens.org.
	Columns curation.ColumnMap `koanf:"columns"`

	Filters FilterConfig `koanf:"filters"`

	// Weights overrides scoring weights by metric name. Absent metrics
	// keep their defaults.
	Weights map[string]float64 `koanf:"weights"`

	Trends TrendsConfig `koanf:"trends"`
	Enrich EnrichConfig `koanf:"enrich"`
}

type FilterConfig struct {
	LegalStatus       string  `koanf:"legal_status"`
	MinCitationsTotal float64 `koanf:"min_citations_total"`
}

type TrendsConfig struct {
	BaseURL            string `koanf:"base_url"`
	Timeframe          string `koanf:"timeframe"`
	RateLimitPerMinute int    `koanf:"rate_limit_per_minute"`

	// CacheDB is an optional SQLite file path. Empty means in-memory
	// caching only.
	CacheDB string `koanf:"cache_db"`
}

type EnrichConfig struct {
	// DelaySeconds paces consecutive model calls.
	DelaySeconds float64 `koanf:"delay_seconds"`
}

var (
	ErrMissingOutputDir = errors.New("output_dir is required")
	ErrInvalidTopN      = errors.New("top_n must be positive")
)

const (
	DefaultOutputDir    = "output"
	DefaultTopN         = 5
	DefaultEnrichDelay  = 1.0
	DefaultTrendsPerMin = 10
)

// Default returns the configuration a run gets with no file at all.
func Default() Config {
	filters := curation.DefaultFilterConfig()
	return Config{
		OutputDir: DefaultOutputDir,
		TopN:      DefaultTopN,
		Columns:   curation.DefaultColumnMap(),
		Filters: FilterConfig{
			LegalStatus:       filters.LegalStatus,
			MinCitationsTotal: filters.MinCitationsTotal,
		},
		Trends: TrendsConfig{
			Timeframe:          trends.DefaultTimeframe,
			RateLimitPerMinute: DefaultTrendsPerMin,
		},
		Enrich: EnrichConfig{DelaySeconds: DefaultEnrichDelay},
	}
}

// Load overlays the YAML file at path (when non-empty) on the defaults and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if c.TopN <= 0 {
		return ErrInvalidTopN
	}
	if _, err := curation.NewWeights(c.Weights); err != nil {
		return err
	}
	return nil
}

// CurationWeights materializes the configured weight overrides.
func (c Config) CurationWeights() (curation.Weights, error) {
	return curation.NewWeights(c.Weights)
}

// CurationFilters maps the file-level filter settings onto the pipeline's
// filter configuration.
func (c Config) CurationFilters() curation.FilterConfig {
	return curation.FilterConfig{
		LegalStatus:       c.Filters.LegalStatus,
		MinCitationsTotal: c.Filters.MinCitationsTotal,
	}
}
