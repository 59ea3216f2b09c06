package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/product-scout/internal/browser"
	"github.com/maltedev/product-scout/internal/catalog"
	"github.com/maltedev/product-scout/internal/config"
	"github.com/maltedev/product-scout/internal/enricher"
	"github.com/maltedev/product-scout/internal/openai"
	"github.com/maltedev/product-scout/internal/parser"
	"github.com/maltedev/product-scout/internal/pipeline"
	"github.com/maltedev/product-scout/internal/scraper"
)

func main() {
	var (
		query    = flag.String("query", "laptops", "Search keyword")
		max      = flag.Int("max", 5, "Maximum number of products to scrape")
		headless = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *max > 0 {
		cfg.Scraper.MaxProducts = *max
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	searchScraper := scraper.NewSearchScraper(b, parser.NewCardParser(cfg.Scraper.BaseURL), cfg.Scraper.BaseURL, logger)
	searchScraper.SetWaitTimeout(cfg.Scraper.WaitTimeout)
	searchScraper.SetRateLimit(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)

	p := pipeline.New(
		scraper.NewAcquirer(
			searchScraper,
			catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger),
			logger,
		),
		enricher.New(
			openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout, logger),
			logger,
		),
		logger,
	)

	products, err := p.Run(ctx, *query, cfg.Scraper.MaxProducts)
	if err != nil {
		logger.Error("pipeline run failed", "query", *query, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		logger.Error("failed to marshal products", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
