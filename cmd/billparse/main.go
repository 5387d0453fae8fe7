package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/garyjia/billwatch/internal/application/service"
	"github.com/garyjia/billwatch/internal/config"
	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/garyjia/billwatch/internal/extraction"
	"github.com/garyjia/billwatch/internal/infrastructure/pdf"
	"github.com/garyjia/billwatch/pkg/utils"
	"go.uber.org/zap"
)

type output struct {
	Record   *entity.BillRecord      `json:"record"`
	Columns  []string                `json:"columns"`
	Row      map[string]string       `json:"row"`
	Sections []extraction.Section    `json:"sections,omitempty"`
	Lines    []extraction.ParsedLine `json:"lines,omitempty"`
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Optional config.yaml supplying extraction rules")
	engine := flag.String("engine", "", "PDF text engine: fitz or plain (overrides config)")
	maxPages := flag.Int("max-pages", 0, "Only read the first N pages (0 = all)")
	showLines := flag.Bool("lines", false, "Include located sections and parsed lines")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: billparse [--config configs/config.yaml] [--engine fitz|plain] [--lines] <bill.pdf>\n")
		os.Exit(2)
	}

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *engine != "" {
		cfg.PDF.Engine = *engine
	}
	if *maxPages > 0 {
		cfg.PDF.MaxPages = *maxPages
	}

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	if err := utils.ValidatePDF(content, cfg.PDF.MaxFileSize); err != nil {
		fmt.Fprintf(os.Stderr, "Not a usable PDF: %v\n", err)
		os.Exit(1)
	}

	source, err := pdf.NewSource(pdf.Config{Engine: cfg.PDF.Engine, MaxPages: cfg.PDF.MaxPages}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize PDF source: %v\n", err)
		os.Exit(1)
	}

	extractor, err := extraction.NewExtractor(cfg.Extraction, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize extractor: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pages, err := source.Pages(ctx, content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to extract page text: %v\n", err)
		os.Exit(1)
	}

	result := extractor.Extract(pages)
	record, err := service.NewBillRecordBuilder(nil).Build(ctx, service.ContentHash(content), result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build record: %v\n", err)
		os.Exit(1)
	}

	row := record.ToSheetRow()
	out := output{
		Record:  record,
		Columns: row.Columns,
		Row:     row.Values,
	}
	if *showLines {
		out.Sections = result.Sections
		out.Lines = result.Lines
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
