package models

// Product is one scraped (or catalog-fetched) listing. Price and Rating are
// best-effort fields: a listing without a visible price or rating keeps them
// nil rather than failing the record. AICategory and AISentiment are filled
// in by the enricher after acquisition; the sources never set them.
type Product struct {
	Title       string   `json:"title"`
	Price       *string  `json:"price"`
	Rating      *float64 `json:"rating"`
	URL         string   `json:"url"`
	AICategory  string   `json:"ai_category,omitempty"`
	AISentiment string   `json:"ai_sentiment,omitempty"`
}

func (p *Product) Validate() []string {
	var errs []string

	if p.Title == "" {
		errs = append(errs, "Title is required")
	}

	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		errs = append(errs, "Rating must be between 0 and 5")
	}

	return errs
}

// StringPtr and Float64Ptr keep literal construction of optional fields terse.
func StringPtr(s string) *string { return &s }

func Float64Ptr(f float64) *float64 { return &f }
