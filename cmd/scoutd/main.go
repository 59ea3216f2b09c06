package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/product-scout/internal/api"
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
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
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

	router := api.NewRouter(api.NewHandlers(p, cfg.Scraper.MaxProducts, logger))

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
