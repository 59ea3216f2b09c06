package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/product-scout/internal/models"
)

var (
	ErrTitleNotFound = errors.New("card title not found")
)

const (
	titleLinkSelector = "h2 a"
	priceSelector     = "span.a-price > span.a-offscreen"
	ratingSelector    = "span.a-icon-alt"
)

// "4.2 out of 5 stars", leading numeric token only.
var ratingPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+out of 5`)

type CardParser struct {
	baseURL string
}

// NewCardParser creates a parser for search-result cards. baseURL is used to
// resolve relative product links into absolute URLs.
func NewCardParser(baseURL string) *CardParser {
	return &CardParser{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ParseCard extracts a product record from one result card's HTML.
// Title and URL are mandatory: a card without a heading link, or whose title
// is empty after trimming, is rejected with ErrTitleNotFound so the caller
// can discard it without failing the batch. Price and rating are best-effort
// and stay nil when their elements are missing or unparsable.
func (p *CardParser) ParseCard(html string) (*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse card HTML: %w", err)
	}

	link := doc.Find(titleLinkSelector).First()
	if link.Length() == 0 {
		return nil, ErrTitleNotFound
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		return nil, ErrTitleNotFound
	}

	product := &models.Product{
		Title: title,
		URL:   p.resolveURL(link.AttrOr("href", "")),
	}

	if price := strings.TrimSpace(doc.Find(priceSelector).First().Text()); price != "" {
		product.Price = &price
	}

	product.Rating = p.extractRating(doc)

	return product, nil
}

func (p *CardParser) extractRating(doc *goquery.Document) *float64 {
	label := strings.TrimSpace(doc.Find(ratingSelector).First().Text())
	if label == "" {
		return nil
	}

	matches := ratingPattern.FindStringSubmatch(label)
	if len(matches) < 2 {
		return nil
	}

	rating, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}

	return &rating
}

func (p *CardParser) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "/") {
		return p.baseURL + href
	}

	return href
}
