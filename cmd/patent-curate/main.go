package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joelkehle/patent-curation/internal/config"
	"github.com/joelkehle/patent-curation/internal/curation"
	"github.com/joelkehle/patent-curation/internal/enrich"
	"github.com/joelkehle/patent-curation/internal/report"
	"github.com/joelkehle/patent-curation/internal/trends"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	inputPath := flag.String("input", "", "Source patent CSV (Lens.org export)")
	outDir := flag.String("out", "", "Output directory (overrides config)")
	topN := flag.Int("top", 0, "Number of candidates to export (overrides config)")
	noAI := flag.Bool("no-ai", false, "Skip AI enrichment")
	noTrends := flag.Bool("no-trends", false, "Skip trend analysis")
	xlsx := flag.Bool("xlsx", false, "Also write an XLSX workbook next to the CSV")
	reportPath := flag.String("report", "", "Optional path for a markdown run report")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *inputPath != "" {
		cfg.InputCSV = *inputPath
	}
	if cfg.InputCSV == "" {
		log.Fatal("missing required -input (or input_csv in config)")
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *topN > 0 {
		cfg.TopN = *topN
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	patents, err := curation.LoadCSV(cfg.InputCSV, cfg.Columns)
	if err != nil {
		log.Fatalf("load %s: %v", cfg.InputCSV, err)
	}
	log.Printf("loaded %d rows from %s", len(patents), cfg.InputCSV)

	weights, err := cfg.CurationWeights()
	if err != nil {
		log.Fatalf("weights: %v", err)
	}

	pipeline := curation.NewPipeline(
		curation.PipelineConfig{
			TopN:    cfg.TopN,
			Filters: cfg.CurationFilters(),
			Weights: weights,
		},
		buildEnricher(*noAI, cfg),
		buildAnalyzer(*noTrends, cfg),
		curation.NewFileExporter(cfg.OutputDir, cfg.Columns, *xlsx),
	)

	progress := func(stage, message string) { log.Printf("[%s] %s", stage, message) }
	top, summary, err := pipeline.RunWithProgress(ctx, patents, progress)
	if err != nil {
		log.Fatalf("pipeline failed at stage %s: %v", curation.StageNameFromError(err), err)
	}

	log.Printf("run complete in %s: %d loaded, %d after filters, %d exported to %s",
		summary.CompletedAt.Sub(summary.StartedAt).Round(time.Millisecond),
		summary.LoadedRows, summary.FilteredRows, summary.ExportedRows, summary.OutputPath)
	if len(summary.StagesSkipped) > 0 {
		log.Printf("stages skipped: %v", summary.StagesSkipped)
	}
	if summary.DegradedEnrichments > 0 || summary.DegradedTrendLookups > 0 {
		log.Printf("degraded: %d enrichments, %d trend lookups",
			summary.DegradedEnrichments, summary.DegradedTrendLookups)
	}

	if *reportPath != "" {
		md := report.BuildMarkdown(summary, top)
		if err := os.WriteFile(*reportPath, []byte(md), 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
		log.Printf("run report written to %s", *reportPath)
	}
}

// buildEnricher returns nil when AI enrichment is disabled or unconfigured;
// the pipeline skips the stage and says so.
func buildEnricher(disabled bool, cfg config.Config) curation.Enricher {
	if disabled {
		return nil
	}
	caller, err := enrich.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Printf("warning: AI enrichment disabled: %v", err)
		return nil
	}
	delay := time.Duration(cfg.Enrich.DelaySeconds * float64(time.Second))
	return enrich.NewEnricher(caller, delay)
}

func buildAnalyzer(disabled bool, cfg config.Config) curation.TrendAnalyzer {
	if disabled {
		return nil
	}
	client, err := trends.NewClient(trends.ClientConfig{
		APIKey:             os.Getenv("TRENDS_API_KEY"),
		BaseURL:            cfg.Trends.BaseURL,
		RateLimitPerMinute: cfg.Trends.RateLimitPerMinute,
	})
	if err != nil {
		log.Printf("warning: trend analysis disabled: %v", err)
		return nil
	}

	var cache trends.Cache
	if cfg.Trends.CacheDB != "" {
		sqliteCache, err := trends.NewSQLiteCache(cfg.Trends.CacheDB)
		if err != nil {
			log.Printf("warning: trend cache db unavailable, using in-memory cache: %v", err)
		} else {
			cache = sqliteCache
		}
	}
	return trends.NewAnalyzer(client, cache, cfg.Trends.Timeframe)
}
