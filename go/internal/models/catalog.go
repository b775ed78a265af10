package models

import "time"

// CatalogItem is a selectable movie or nominee supplied by a catalog provider.
type CatalogItem struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	ReleaseDate *time.Time `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	Popularity  float64    `json:"popularity" yaml:"popularity"`
	Score       float64    `json:"score" yaml:"score"` // box office or correctness weight
}

// Nominee is a locally known oscar nominee within one category.
type Nominee struct {
	ID         string  `json:"id" yaml:"id"`
	Category   string  `json:"category" yaml:"category"`
	Name       string  `json:"name" yaml:"name"`
	WorkTitle  string  `json:"work_title,omitempty" yaml:"work_title,omitempty"`
	Popularity float64 `json:"popularity" yaml:"popularity"`
}

// MarketQuote is an externally supplied probability for a free-text outcome.
// Category, when set, names the nominee category the market settles.
type MarketQuote struct {
	Title       string  `json:"title"`
	Category    string  `json:"category,omitempty"`
	Probability float64 `json:"probability"`
}
