package standings

import (
	"context"
	"fmt"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// CatalogScorer scores a selection by its catalog Score. Unknown ids score 0.
func CatalogScorer(items []models.CatalogItem) Scorer {
	scores := make(map[string]float64, len(items))
	for _, it := range items {
		scores[it.ID] = it.Score
	}
	return func(selectionID string) float64 {
		return scores[selectionID]
	}
}

// OscarResult is the announced winner of one category.
type OscarResult struct {
	Category string  `json:"category" yaml:"category"`
	WinnerID string  `json:"winner_id" yaml:"winner_id"`
	Weight   float64 `json:"weight" yaml:"weight"` // 0 means 1
}

// OscarScorer awards a category's weight to a pick of its winner.
func OscarScorer(results []OscarResult) Scorer {
	weights := make(map[string]float64, len(results))
	for _, r := range results {
		w := r.Weight
		if w == 0 {
			w = 1
		}
		weights[r.WinnerID] += w
	}
	return func(selectionID string) float64 {
		return weights[selectionID]
	}
}

// ItemPool lists every scoreable item for a draft mode.
type ItemPool interface {
	Pool(ctx context.Context, mode models.DraftMode) ([]models.CatalogItem, error)
}

// Rules picks the scorer for a draft. Oscar drafts are scored by Results
// once any are announced, and by catalog Score until then.
type Rules struct {
	Catalog ItemPool
	Results []OscarResult
}

// ScorerFor returns the scorer that applies to d.
func (r Rules) ScorerFor(ctx context.Context, d *models.Draft) (Scorer, error) {
	if d.Mode == models.DraftModeOscar && len(r.Results) > 0 {
		return OscarScorer(r.Results), nil
	}
	if r.Catalog == nil {
		return func(string) float64 { return 0 }, nil
	}
	items, err := r.Catalog.Pool(ctx, d.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring catalog: %w", err)
	}
	return CatalogScorer(items), nil
}
