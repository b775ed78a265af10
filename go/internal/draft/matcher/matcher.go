// Package matcher links prediction-market quotes to known nominees.
// Matching is best effort. A quote that cannot be placed is dropped.
package matcher

import (
	"strings"
	"unicode"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pair links a market quote with the nominee it refers to.
type Pair struct {
	Quote     models.MarketQuote
	NomineeID string
}

// Match places each quote on at most one nominee. A nominee qualifies when
// its name or work title contains the quote title or is contained by it,
// ignoring case. The longest overlap wins and ties go to nominee order.
// Quotes with no such nominee are retried with diacritics folded, then
// dropped.
func Match(quotes []models.MarketQuote, nominees []models.Nominee) []Pair {
	var out []Pair
	for _, q := range quotes {
		title := strings.ToLower(strings.TrimSpace(q.Title))
		if title == "" {
			continue
		}
		if id, ok := find(title, nominees, strings.ToLower); ok {
			out = append(out, Pair{Quote: q, NomineeID: id})
			continue
		}
		if id, ok := find(fold(title), nominees, func(s string) string { return fold(strings.ToLower(s)) }); ok {
			out = append(out, Pair{Quote: q, NomineeID: id})
		}
	}
	return out
}

func find(title string, nominees []models.Nominee, normalize func(string) string) (string, bool) {
	bestID, bestLen := "", 0
	for _, n := range nominees {
		for _, field := range []string{n.Name, n.WorkTitle} {
			f := normalize(strings.TrimSpace(field))
			if f == "" {
				continue
			}
			overlap := 0
			switch {
			case strings.Contains(f, title):
				overlap = len(title)
			case strings.Contains(title, f):
				overlap = len(f)
			}
			if overlap > bestLen {
				bestID, bestLen = n.ID, overlap
			}
		}
	}
	return bestID, bestLen > 0
}

// fold strips combining marks, so "Penélope Cruz" compares equal to "Penelope Cruz".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Enrich returns a copy of nominees with Popularity set to the matched
// market probability. Nominees without a quote get fallback. When several
// quotes land on one nominee the highest probability wins. A quote that
// names a category is only matched within that category.
func Enrich(nominees []models.Nominee, quotes []models.MarketQuote, fallback float64) []models.Nominee {
	byCategory := make(map[string][]models.Nominee)
	for _, n := range nominees {
		byCategory[n.Category] = append(byCategory[n.Category], n)
	}

	best := make(map[string]float64)
	for _, q := range quotes {
		pool := nominees
		if q.Category != "" {
			pool = byCategory[q.Category]
		}
		for _, m := range Match([]models.MarketQuote{q}, pool) {
			if p, ok := best[m.NomineeID]; !ok || m.Quote.Probability > p {
				best[m.NomineeID] = m.Quote.Probability
			}
		}
	}

	out := make([]models.Nominee, len(nominees))
	for i, n := range nominees {
		n.Popularity = fallback
		if p, ok := best[n.ID]; ok {
			n.Popularity = p
		}
		out[i] = n
	}
	return out
}
