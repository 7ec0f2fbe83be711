// Package enrich augments a patent with AI-generated curation fields: a
// plain-language summary, search keywords for trend analysis, concrete use
// cases, and a short market note. Malformed model output fails closed to an
// empty result so a bad response degrades one record instead of fabricating
// content or aborting the batch.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joelkehle/patent-curation/internal/retryutil"
)

const (
	MaxKeywords = 5
	MaxUseCases = 3

	maxAbstractChars = 6000
)

// Result holds the enrichment fields for one patent. The zero value is the
// degraded (empty) result.
type Result struct {
	Summary    string   `json:"human_abstract"`
	Keywords   []string `json:"keywords"`
	UseCases   []string `json:"use_cases"`
	MarketNote string   `json:"market_potential"`
}

func (r Result) Empty() bool {
	return r.Summary == "" && len(r.Keywords) == 0 && len(r.UseCases) == 0 && r.MarketNote == ""
}

type Enricher struct {
	caller  Caller
	limiter *rate.Limiter
	retry   retryutil.Policy
}

// NewEnricher wraps caller with request pacing and bounded transport
// retries. delay is the minimum gap between consecutive calls.
func NewEnricher(caller Caller, delay time.Duration) *Enricher {
	if delay <= 0 {
		delay = time.Second
	}
	return &Enricher{
		caller:  caller,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		retry:   retryutil.DefaultPolicy(),
	}
}

// EnrichPatent runs one enrichment call. Transport failures are retried
// with backoff; a response that cannot be parsed into the expected shape
// returns an error with the zero Result, never partial output.
func (e *Enricher) EnrichPatent(ctx context.Context, title, abstract string) (Result, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	prompt := buildPrompt(title, abstract)
	var raw string
	err := retryutil.Do(ctx, e.retry, func(ctx context.Context) error {
		out, err := e.caller.GenerateJSON(ctx, prompt)
		if err != nil {
			return err
		}
		raw = out
		return nil
	}, isTransientTransport)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment call failed: %w", err)
	}

	res, err := parseResult(raw)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment response malformed: %w", err)
	}
	return res, nil
}

func buildPrompt(title, abstract string) string {
	if len(abstract) > maxAbstractChars {
		abstract = abstract[:maxAbstractChars]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this expired patent for commercial reuse potential.\n\n")
	fmt.Fprintf(&b, "PATENT TITLE: %s\n\n", title)
	fmt.Fprintf(&b, "PATENT ABSTRACT: %s\n\n", abstract)
	b.WriteString(`Produce:

1. human_abstract (2-3 sentences): rewrite the technical abstract in plain
   language. Explain what the technology does and why it could be useful.

2. keywords (3-5 terms): search terms people would actually type into a web
   search if they needed this technology. Use common, popular phrasing, not
   patent jargon. Example: instead of "thermal cycler" use "PCR machine" or
   "DNA testing equipment".

3. use_cases (exactly 3): concrete applications in specific industries.

4. market_potential (1-2 sentences): is this still relevant? Growing or
   shrinking market? Large or niche?

Required JSON schema:
{
  "human_abstract": "string",
  "keywords": ["string (3-5 entries)"],
  "use_cases": ["string (3 entries)"],
  "market_potential": "string"
}

Respond with only valid JSON, nothing before or after it.`)
	return b.String()
}

func parseResult(raw string) (Result, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return Result{}, fmt.Errorf("empty response")
	}
	var res Result
	if err := json.Unmarshal([]byte(clean), &res); err != nil {
		return Result{}, err
	}
	if len(res.Keywords) > MaxKeywords {
		res.Keywords = res.Keywords[:MaxKeywords]
	}
	if len(res.UseCases) > MaxUseCases {
		res.UseCases = res.UseCases[:MaxUseCases]
	}
	return res, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
