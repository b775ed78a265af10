package matcher

import (
	"testing"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actress = []models.Nominee{
	{ID: "ba_cruz", Category: "Best Actress", Name: "Penélope Cruz", WorkTitle: "Parallel Mothers"},
	{ID: "ba_stone", Category: "Best Actress", Name: "Emma Stone", WorkTitle: "Poor Things"},
	{ID: "ba_gladstone", Category: "Best Actress", Name: "Lily Gladstone", WorkTitle: "Killers of the Flower Moon"},
}

func TestMatchByNameIgnoringCase(t *testing.T) {
	got := Match([]models.MarketQuote{{Title: "EMMA STONE", Probability: 0.61}}, actress)

	require.Len(t, got, 1)
	assert.Equal(t, "ba_stone", got[0].NomineeID)
	assert.Equal(t, 0.61, got[0].Quote.Probability)
}

func TestMatchByWorkTitleEitherDirection(t *testing.T) {
	got := Match([]models.MarketQuote{
		{Title: "Killers of the Flower Moon (Gladstone)", Probability: 0.3},
		{Title: "poor things", Probability: 0.5},
	}, actress)

	require.Len(t, got, 2)
	assert.Equal(t, "ba_gladstone", got[0].NomineeID)
	assert.Equal(t, "ba_stone", got[1].NomineeID)
}

func TestMatchFoldsDiacritics(t *testing.T) {
	got := Match([]models.MarketQuote{{Title: "Penelope Cruz", Probability: 0.05}}, actress)

	require.Len(t, got, 1)
	assert.Equal(t, "ba_cruz", got[0].NomineeID)
}

func TestMatchDropsUnknownAndEmpty(t *testing.T) {
	got := Match([]models.MarketQuote{
		{Title: "Sandra Hüller", Probability: 0.2},
		{Title: "   ", Probability: 0.9},
	}, actress)

	assert.Empty(t, got)
}

func TestMatchNeverMatchesEmptyNomineeFields(t *testing.T) {
	nominees := []models.Nominee{{ID: "blank"}, {ID: "bp_oppenheimer", WorkTitle: "Oppenheimer"}}
	got := Match([]models.MarketQuote{{Title: "Oppenheimer", Probability: 0.8}}, nominees)

	require.Len(t, got, 1)
	assert.Equal(t, "bp_oppenheimer", got[0].NomineeID)
}

func TestEnrich(t *testing.T) {
	got := Enrich(actress, []models.MarketQuote{
		{Title: "Emma Stone", Probability: 0.4},
		{Title: "Poor Things", Probability: 0.55},
		{Title: "Nobody", Probability: 0.99},
	}, 0.01)

	require.Len(t, got, 3)
	assert.Equal(t, 0.01, got[0].Popularity)
	assert.Equal(t, 0.55, got[1].Popularity)
	assert.Equal(t, 0.01, got[2].Popularity)
	// Inputs are not modified.
	assert.Zero(t, actress[1].Popularity)
}

func TestMatchPrefersLongestOverlap(t *testing.T) {
	nominees := []models.Nominee{
		{ID: "an_up", Name: "Up"},
		{ID: "sa_cast", Name: "Supporting Cast"},
	}
	got := Match([]models.MarketQuote{
		{Title: "Supporting Cast", Probability: 0.4},
		{Title: "Up", Probability: 0.2},
	}, nominees)

	require.Len(t, got, 2)
	assert.Equal(t, "sa_cast", got[0].NomineeID)
	assert.Equal(t, "an_up", got[1].NomineeID)
}

func TestEnrichKeepsQuotesInTheirCategory(t *testing.T) {
	nominees := []models.Nominee{
		{ID: "ba_murphy", Category: "best_actor", Name: "Cillian Murphy", WorkTitle: "Oppenheimer"},
		{ID: "bp_oppenheimer", Category: "best_picture", Name: "Oppenheimer"},
	}
	got := Enrich(nominees, []models.MarketQuote{
		{Title: "Oppenheimer", Category: "best_picture", Probability: 0.85},
		{Title: "Cillian Murphy", Category: "best_actor", Probability: 0.60},
		{Title: "Barbie", Category: "documentary", Probability: 0.9},
	}, 0.01)

	require.Len(t, got, 2)
	assert.Equal(t, 0.60, got[0].Popularity)
	assert.Equal(t, 0.85, got[1].Popularity)
}
