package enricher

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/product-scout/internal/models"
)

// fakeCompleter replays scripted responses in call order.
type fakeCompleter struct {
	configured bool
	responses  []string
	errs       []error
	calls      int
	prompts    []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	idx := f.calls
	f.calls++
	f.prompts = append(f.prompts, user)

	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("unexpected call")
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func sampleProducts() []*models.Product {
	return []*models.Product{
		{Title: "Gaming Laptop", Price: models.StringPtr("$899.99"), Rating: models.Float64Ptr(4.5)},
		{Title: "Office Mouse", Price: models.StringPtr("$19.99"), Rating: models.Float64Ptr(3.8)},
	}
}

func TestAnnotateAppliesBothPassesPositionally(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`{"categories": ["gaming", "budget"]}`,
			`{"sentiments": ["Great laptop!", "Decent mouse."]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	require.Len(t, result, 2)
	assert.Equal(t, "gaming", result[0].AICategory)
	assert.Equal(t, "budget", result[1].AICategory)
	assert.Equal(t, "Great laptop!", result[0].AISentiment)
	assert.Equal(t, "Decent mouse.", result[1].AISentiment)
	assert.Equal(t, 2, client.calls)
}

func TestAnnotateReturnsSameSliceSameOrder(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`{"categories": ["general", "general"]}`,
			`{"sentiments": ["Fine.", "Fine."]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	require.Len(t, result, len(products))
	for i := range products {
		assert.Same(t, products[i], result[i])
	}
}

func TestAnnotateWithoutAPIKeySetsSentinelsAndMakesNoCalls(t *testing.T) {
	client := &fakeCompleter{configured: false}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	assert.Equal(t, 0, client.calls, "degraded mode must not touch the network")
	for _, p := range result {
		assert.Equal(t, CategoryUnknown, p.AICategory)
		assert.Equal(t, SentimentUnavailable, p.AISentiment)
	}
}

func TestAnnotateUnparsableCategoriesDefaultsEveryProduct(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`not valid json`,
			`{"sentiments": ["Great laptop!", "Decent mouse."]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	// Defaulting is all-or-nothing: no mix of parsed and defaulted.
	assert.Equal(t, DefaultCategory, result[0].AICategory)
	assert.Equal(t, DefaultCategory, result[1].AICategory)
	assert.Equal(t, "Great laptop!", result[0].AISentiment)
}

func TestAnnotateMissingCategoriesKeyDefaultsEveryProduct(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`{"labels": ["gaming", "budget"]}`,
			`{"sentiments": ["A", "B"]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	assert.Equal(t, DefaultCategory, result[0].AICategory)
	assert.Equal(t, DefaultCategory, result[1].AICategory)
}

func TestAnnotateCategoryPassFailureDoesNotAbortSentimentPass(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		errs:       []error{errors.New("API returned status 500")},
		responses: []string{
			"", // consumed by the failed first call
			`{"sentiments": ["Great laptop!", "Decent mouse."]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	// Isolation: categories absent, sentiments still populated.
	assert.Empty(t, result[0].AICategory)
	assert.Empty(t, result[1].AICategory)
	assert.Equal(t, "Great laptop!", result[0].AISentiment)
	assert.Equal(t, "Decent mouse.", result[1].AISentiment)
	assert.Equal(t, 2, client.calls, "second pass must still be attempted")
}

func TestAnnotateSentimentPassFailureKeepsCategoryResults(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		errs:       []error{nil, errors.New("API error")},
		responses: []string{
			`{"categories": ["gaming", "budget"]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	assert.Equal(t, "gaming", result[0].AICategory)
	assert.Equal(t, "budget", result[1].AICategory)
	assert.Empty(t, result[0].AISentiment)
	assert.Empty(t, result[1].AISentiment)
}

func TestAnnotateShorterResponseLeavesTrailingProductsUnannotated(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`{"categories": ["gaming"]}`,
			`{"sentiments": ["Great laptop!"]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	assert.Equal(t, "gaming", result[0].AICategory)
	assert.Empty(t, result[1].AICategory, "no zip partner, no category")
	assert.Equal(t, "Great laptop!", result[0].AISentiment)
	assert.Empty(t, result[1].AISentiment)
}

func TestAnnotateLongerResponseIgnoresExtraEntries(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`{"categories": ["gaming", "budget", "professional"]}`,
			`{"sentiments": ["A", "B", "C"]}`,
		},
	}
	products := sampleProducts()

	result := New(client, slog.Default()).Annotate(context.Background(), products)

	require.Len(t, result, 2)
	assert.Equal(t, "gaming", result[0].AICategory)
	assert.Equal(t, "budget", result[1].AICategory)
}

func TestAnnotateEmptyBatchIsANoop(t *testing.T) {
	client := &fakeCompleter{configured: true}

	result := New(client, slog.Default()).Annotate(context.Background(), nil)

	assert.Empty(t, result)
	assert.Equal(t, 0, client.calls)
}

func TestAnnotateSendsTitlesAndRatingsPositionally(t *testing.T) {
	client := &fakeCompleter{
		configured: true,
		responses: []string{
			`{"categories": ["gaming", "budget"]}`,
			`{"sentiments": ["A", "B"]}`,
		},
	}
	products := sampleProducts()

	New(client, slog.Default()).Annotate(context.Background(), products)

	require.Len(t, client.prompts, 2)
	assert.JSONEq(t, `["Gaming Laptop", "Office Mouse"]`, client.prompts[0])
	assert.JSONEq(t,
		`[{"title":"Gaming Laptop","rating":4.5},{"title":"Office Mouse","rating":3.8}]`,
		client.prompts[1])
}
