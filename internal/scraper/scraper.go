package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/product-scout/internal/models"
)

var (
	// ErrNoResults signals that every scrape attempt was exhausted without a
	// single usable record. It is the "no result" outcome, distinct both from
	// a hard failure and from an empty-but-present list.
	ErrNoResults = errors.New("no results after all scrape attempts")
)

// Source is the primary acquisition path: a live search-results scrape.
type Source interface {
	Scrape(ctx context.Context, query string, limit int) ([]*models.Product, error)
}

// Catalog is the fallback acquisition path: a fixed product catalog API.
type Catalog interface {
	Fetch(ctx context.Context, limit int) ([]*models.Product, error)
}
