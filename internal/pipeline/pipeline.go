package pipeline

import (
	"context"
	"log/slog"

	"github.com/maltedev/product-scout/internal/models"
)

type Acquirer interface {
	Acquire(ctx context.Context, query string, limit int) ([]*models.Product, error)
}

type Annotator interface {
	Annotate(ctx context.Context, products []*models.Product) []*models.Product
}

// Pipeline chains acquisition and enrichment. Acquisition failures are fatal
// to the run; enrichment degrades inside the annotator and never fails here.
type Pipeline struct {
	acquirer Acquirer
	enricher Annotator
	logger   *slog.Logger
}

func New(acquirer Acquirer, enricher Annotator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		acquirer: acquirer,
		enricher: enricher,
		logger:   logger.With("component", "pipeline"),
	}
}

func (p *Pipeline) Run(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	products, err := p.acquirer.Acquire(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return p.enricher.Annotate(ctx, products), nil
}
