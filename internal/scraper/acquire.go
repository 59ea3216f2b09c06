package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maltedev/product-scout/internal/models"
)

// Acquirer orchestrates the two-tier acquisition strategy: the live scrape
// first, the fixed catalog as the guaranteed fallback. Source exhaustion is
// never an error at this layer; only a fallback transport failure propagates,
// since nothing further exists to fall back to.
type Acquirer struct {
	primary  Source
	fallback Catalog
	logger   *slog.Logger
}

func NewAcquirer(primary Source, fallback Catalog, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "acquirer"),
	}
}

func (a *Acquirer) Acquire(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	log := a.logger.With("run_id", uuid.New().String(), "query", query, "limit", limit)

	products, err := a.primary.Scrape(ctx, query, limit)
	if err == nil && len(products) > 0 {
		log.Info("acquired from primary source", "products", len(products))
		return products, nil
	}

	if err != nil && !errors.Is(err, ErrNoResults) {
		log.Warn("primary source failed", "error", err)
	}

	log.Info("falling back to catalog")

	products, err = a.fallback.Fetch(ctx, limit)
	if err != nil {
		return nil, err
	}

	log.Info("acquired from catalog fallback", "products", len(products))
	return products, nil
}
