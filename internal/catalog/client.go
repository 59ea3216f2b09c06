package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maltedev/product-scout/internal/models"
)

// ErrUnavailable marks a failed catalog fetch. The catalog IS the fallback,
// so there is no silent recovery here: any transport problem is a hard
// failure for the whole acquisition.
var ErrUnavailable = errors.New("catalog unavailable")

const defaultTimeout = 10 * time.Second

// Client fetches a fixed-size product catalog from the fallback API and
// normalizes its items to the shared record shape.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With("component", "catalog"),
	}
}

type catalogItem struct {
	ID     int            `json:"id"`
	Title  string         `json:"title"`
	Price  float64        `json:"price"`
	Rating *catalogRating `json:"rating"`
}

type catalogRating struct {
	Rate float64 `json:"rate"`
}

// Fetch issues one GET against the catalog endpoint and returns the first
// limit items, normalized. No retries: a non-2xx status or transport fault
// propagates wrapped in ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, limit int) ([]*models.Product, error) {
	endpoint := c.baseURL + "/products"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var items []catalogItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	products := make([]*models.Product, 0, len(items))
	for _, item := range items {
		products = append(products, c.normalize(item))
	}

	c.logger.Info("fetched catalog products", "count", len(products))

	return products, nil
}

func (c *Client) normalize(item catalogItem) *models.Product {
	price := fmt.Sprintf("$%.2f", item.Price)

	product := &models.Product{
		Title: item.Title,
		Price: &price,
		URL:   fmt.Sprintf("%s/products/%d", c.baseURL, item.ID),
	}

	if item.Rating != nil {
		product.Rating = &item.Rating.Rate
	}

	return product
}
