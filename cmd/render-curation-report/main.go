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

	"github.com/joelkehle/patent-curation/internal/report"
)

func main() {
	inputPath := flag.String("input", "", "Path to a markdown run report")
	htmlPath := flag.String("html", "", "Path to write rendered HTML (defaults to stdout when no -pdf)")
	pdfPath := flag.String("pdf", "", "Optional path to write a PDF (requires a local Chromium)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	markdown, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	htmlDoc, err := report.RenderHTML(string(markdown))
	if err != nil {
		log.Fatalf("render html: %v", err)
	}

	switch {
	case *htmlPath != "":
		if err := os.WriteFile(*htmlPath, []byte(htmlDoc), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
		log.Printf("html written to %s", *htmlPath)
	case *pdfPath == "":
		fmt.Print(htmlDoc)
	}

	if *pdfPath != "" {
		if !strings.HasSuffix(*pdfPath, ".pdf") {
			log.Fatalf("pdf output path should end in .pdf, got %s", *pdfPath)
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		pdf, err := report.NewChromiumPDFRenderer().Render(ctx, string(markdown))
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
		log.Printf("pdf written to %s", *pdfPath)
	}
}
