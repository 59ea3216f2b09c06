package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maltedev/product-scout/internal/models"
)

// Completer is the LLM collaborator. Configured reports credential presence
// so the enricher can degrade without a network round trip.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	Configured() bool
}

// Sentinels written when enrichment is skipped or a pass degrades. Core
// product data is never touched by a failed pass.
const (
	CategoryUnknown      = "unknown (no API key)"
	SentimentUnavailable = "unavailable (no API key)"

	DefaultCategory  = "general"
	DefaultSentiment = "No sentiment available."
)

const (
	categorySystemPrompt = "You are a product classifier. For each product title, assign exactly one " +
		"category from: budget, gaming, professional, general. " +
		`Respond with a JSON object: {"categories": ["cat1", "cat2", ...]} ` +
		"one category per title, same order."

	sentimentSystemPrompt = "For each product, generate a concise one-sentence sentiment summary " +
		"based on its rating (out of 5) and title. " +
		`Respond with a JSON object: {"sentiments": ["sentence1", "sentence2", ...]} ` +
		"one per product, same order."

	categoryMaxTokens  = 300
	sentimentMaxTokens = 500
)

// Enricher runs two independent LLM-backed annotation passes over a product
// batch: category classification and rating sentiment. Both passes are
// best-effort additive metadata; neither can fail the batch.
type Enricher struct {
	client Completer
	logger *slog.Logger
}

func New(client Completer, logger *slog.Logger) *Enricher {
	return &Enricher{
		client: client,
		logger: logger.With("component", "enricher"),
	}
}

// Annotate mutates products in place and always returns the same slice in the
// same order, whatever the two passes did or failed to do. Without a
// configured credential no network call is made and every record gets the two
// fixed sentinels.
func (e *Enricher) Annotate(ctx context.Context, products []*models.Product) []*models.Product {
	if len(products) == 0 {
		return products
	}

	if !e.client.Configured() {
		e.logger.Warn("no API key configured, skipping AI enrichment")
		for _, p := range products {
			p.AICategory = CategoryUnknown
			p.AISentiment = SentimentUnavailable
		}
		return products
	}

	// Each pass is isolated: a hard client failure skips that pass's
	// annotations but never the other pass or the batch itself.
	categories, err := e.categorize(ctx, products)
	if err != nil {
		e.logger.Warn("categorization failed", "error", err)
	} else {
		for i, c := range categories {
			if i >= len(products) {
				break
			}
			products[i].AICategory = c
		}
		e.logger.Info("AI categorization complete", "annotated", min(len(categories), len(products)))
	}

	sentiments, err := e.summarizeRatings(ctx, products)
	if err != nil {
		e.logger.Warn("sentiment analysis failed", "error", err)
	} else {
		for i, s := range sentiments {
			if i >= len(products) {
				break
			}
			products[i].AISentiment = s
		}
		e.logger.Info("AI sentiment analysis complete", "annotated", min(len(sentiments), len(products)))
	}

	return products
}

// categorize returns one category per product, correlated by position.
// Unparsable model output degrades to the default category for every product;
// only a hard client failure surfaces as an error.
func (e *Enricher) categorize(ctx context.Context, products []*models.Product) ([]string, error) {
	titles := make([]string, 0, len(products))
	for _, p := range products {
		titles = append(titles, p.Title)
	}

	payload, err := json.Marshal(titles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal titles: %w", err)
	}

	raw, err := e.client.Complete(ctx, categorySystemPrompt, string(payload), categoryMaxTokens)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Categories == nil {
		e.logger.Warn("unparsable categorization output, defaulting every product", "raw", raw)
		return repeated(DefaultCategory, len(products)), nil
	}

	return parsed.Categories, nil
}

type ratingEntry struct {
	Title  string   `json:"title"`
	Rating *float64 `json:"rating"`
}

func (e *Enricher) summarizeRatings(ctx context.Context, products []*models.Product) ([]string, error) {
	entries := make([]ratingEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, ratingEntry{Title: p.Title, Rating: p.Rating})
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rating entries: %w", err)
	}

	raw, err := e.client.Complete(ctx, sentimentSystemPrompt, string(payload), sentimentMaxTokens)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Sentiments []string `json:"sentiments"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Sentiments == nil {
		e.logger.Warn("unparsable sentiment output, defaulting every product", "raw", raw)
		return repeated(DefaultSentiment, len(products)), nil
	}

	return parsed.Sentiments, nil
}

func repeated(value string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = value
	}
	return out
}
