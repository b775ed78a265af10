package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/availability"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Selection is what an auto-pick policy chose.
type Selection struct {
	ID       string
	Category string
}

// AutoPickPolicy chooses a default selection for an expired turn.
type AutoPickPolicy interface {
	Choose(ctx context.Context, d *models.Draft) (Selection, error)
}

// CatalogProvider supplies the selectable items for a draft.
type CatalogProvider interface {
	Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error)
}

// HighestRankedPolicy picks the most popular available item, breaking ties
// by ascending id. In oscar mode it fills the picker's first open category,
// in draft category order or else catalog order.
type HighestRankedPolicy struct {
	catalog CatalogProvider
}

// NewHighestRankedPolicy creates a policy over catalog.
func NewHighestRankedPolicy(catalog CatalogProvider) *HighestRankedPolicy {
	return &HighestRankedPolicy{catalog: catalog}
}

func (p *HighestRankedPolicy) Choose(ctx context.Context, d *models.Draft) (Selection, error) {
	items, err := p.catalog.Items(ctx, d)
	if err != nil {
		return Selection{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	if d.Mode == models.DraftModeOscar {
		return chooseOscar(d, items)
	}

	tracker := availability.NewTracker()
	tracker.SetPicks(d.Picks)
	tracker.AddPage(items)
	ranked := Rank(tracker.Available())
	if len(ranked) == 0 {
		return Selection{}, ErrNoSelectionAvailable
	}
	return Selection{ID: ranked[0].ID}, nil
}

func chooseOscar(d *models.Draft, items []models.CatalogItem) (Selection, error) {
	picker, ok := CurrentPicker(d)
	if !ok {
		return Selection{}, ErrDraftNotActive
	}

	filled := make(map[string]bool)
	for _, pk := range d.Picks {
		if pk.ParticipantID == picker {
			filled[pk.Category] = true
		}
	}

	byCategory := make(map[string][]models.CatalogItem)
	var catalogOrder []string
	for _, it := range items {
		if _, seen := byCategory[it.Category]; !seen {
			catalogOrder = append(catalogOrder, it.Category)
		}
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}

	categories := d.Settings.Categories
	if len(categories) == 0 {
		categories = catalogOrder
	}
	for _, cat := range categories {
		if cat == "" || filled[cat] {
			continue
		}
		if ranked := Rank(byCategory[cat]); len(ranked) > 0 {
			return Selection{ID: ranked[0].ID, Category: cat}, nil
		}
	}
	return Selection{}, ErrNoSelectionAvailable
}

// Rank orders items by descending popularity, then ascending id.
func Rank(items []models.CatalogItem) []models.CatalogItem {
	out := append([]models.CatalogItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ID < out[j].ID
	})
	return out
}
