package parser

import (
	"github.com/maltedev/product-scout/internal/models"
)

// Parser turns the HTML of a single search-result card into a product record.
type Parser interface {
	ParseCard(html string) (*models.Product, error)
}
