package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maltedev/product-scout/internal/browser"
	"github.com/maltedev/product-scout/internal/models"
	"github.com/maltedev/product-scout/internal/parser"
	"github.com/maltedev/product-scout/internal/ratelimit"
)

const (
	resultCardSelector = "[data-component-type='s-search-result']"

	// maxAttempts is a hard budget: two fresh sessions, then give up and let
	// the acquirer fall back to the catalog.
	maxAttempts        = 2
	defaultWaitTimeout = 12 * time.Second
)

var errNoCards = errors.New("no result cards appeared")

// SearchScraper drives a rendering session against a search-results page and
// extracts product records from the result cards. Each attempt owns exactly
// one session and releases it before the attempt returns, on every path.
type SearchScraper struct {
	sessions    browser.SessionFactory
	parser      parser.Parser
	limiter     *ratelimit.AdaptiveRateLimiter
	logger      *slog.Logger
	baseURL     string
	waitTimeout time.Duration
}

func NewSearchScraper(sessions browser.SessionFactory, p parser.Parser, baseURL string, logger *slog.Logger) *SearchScraper {
	return &SearchScraper{
		sessions:    sessions,
		parser:      p,
		limiter:     ratelimit.NewAdaptiveRateLimiter(2*time.Second, 8*time.Second),
		logger:      logger.With("component", "search_scraper"),
		baseURL:     baseURL,
		waitTimeout: defaultWaitTimeout,
	}
}

// SetWaitTimeout overrides how long each attempt waits for result cards.
func (s *SearchScraper) SetWaitTimeout(d time.Duration) {
	s.waitTimeout = d
}

// SetRateLimit overrides the pacing window between attempts. The adaptive
// backoff still widens the window when attempts keep failing.
func (s *SearchScraper) SetRateLimit(min, max time.Duration) {
	s.limiter.SetDelay(min, max)
}

// Scrape runs up to two full scrape attempts for query and returns at most
// limit parsed records. The first attempt that yields at least one record
// wins; remaining attempts are not spent. When both attempts produce nothing
// usable, Scrape returns ErrNoResults rather than an empty list.
func (s *SearchScraper) Scrape(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	searchURL := fmt.Sprintf("%s/s?k=%s", s.baseURL, url.QueryEscape(query))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		products, err := s.attempt(searchURL, limit)
		if err != nil {
			s.limiter.RecordError()
			s.logger.Warn("scrape attempt failed",
				"attempt", attempt, "max_attempts", maxAttempts, "query", query, "error", err)
			continue
		}

		if len(products) > 0 {
			s.limiter.RecordSuccess()
			s.logger.Info("scrape succeeded",
				"attempt", attempt, "query", query, "products", len(products))
			return products, nil
		}

		s.limiter.RecordError()
		s.logger.Warn("scrape attempt yielded no parseable cards",
			"attempt", attempt, "max_attempts", maxAttempts, "query", query)
	}

	return nil, ErrNoResults
}

// attempt opens one session, navigates, waits for cards and parses them.
// The session is released on every exit path, including errors.
func (s *SearchScraper) attempt(searchURL string, limit int) ([]*models.Product, error) {
	session, err := s.sessions.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(searchURL); err != nil {
		return nil, err
	}

	if err := session.WaitForSelector(resultCardSelector, s.waitTimeout); err != nil {
		return nil, err
	}

	cards, err := session.ElementsHTML(resultCardSelector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to collect result cards: %w", err)
	}

	if len(cards) == 0 {
		return nil, errNoCards
	}

	products := make([]*models.Product, 0, len(cards))
	for _, html := range cards {
		product, err := s.parser.ParseCard(html)
		if err != nil {
			// Broken cards are discarded, not fatal to the batch.
			continue
		}
		products = append(products, product)
	}

	return products, nil
}
