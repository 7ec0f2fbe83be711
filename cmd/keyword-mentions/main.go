package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joelkehle/patent-curation/internal/mentions"
)

func main() {
	keyword := flag.String("keyword", "", "Keyword to check across all platforms")
	platform := flag.String("platform", "", "Single platform to compare keywords on")
	compare := flag.String("compare", "", "Comma-separated keywords to compare (requires -platform)")
	flag.Parse()

	if *keyword == "" && *compare == "" {
		log.Fatalf("missing -keyword or -compare; known platforms: %s",
			strings.Join(mentions.PlatformNames(), ", "))
	}

	client, err := mentions.NewClient(mentions.ClientConfig{
		APIKey:   requiredEnv("GOOGLE_SEARCH_API_KEY"),
		EngineID: requiredEnv("GOOGLE_SEARCH_ENGINE_ID"),
	})
	if err != nil {
		log.Fatalf("mentions client: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var counts []mentions.Count
	switch {
	case *compare != "":
		if *platform == "" {
			log.Fatal("-compare requires -platform")
		}
		keywords := splitKeywords(*compare)
		counts, err = client.Compare(ctx, *platform, keywords)
	case *platform != "":
		var count mentions.Count
		count, err = client.Check(ctx, *platform, *keyword)
		counts = []mentions.Count{count}
	default:
		counts, err = client.CheckAll(ctx, *keyword)
	}
	if err != nil {
		log.Fatalf("mention lookup: %v", err)
	}

	for _, c := range counts {
		fmt.Printf("%-14s %-28s %d\n", c.Platform, c.Keyword, c.Total)
	}
}

func splitKeywords(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func requiredEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		log.Fatalf("missing required environment variable %s", name)
	}
	return v
}
